package models

import "time"

// Comment is immutable once created. User is always resolved.
type Comment struct {
	ID        string    `json:"_id"`
	RecipeID  string    `json:"recipe"`
	Text      string    `json:"text"`
	User      Author    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
