// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash and the verification token never leave
// the server.
type User struct {
	ID                      string     `json:"_id"`
	Email                   string     `json:"email"`
	PasswordHash            string     `json:"-"`
	Name                    string     `json:"name"`
	Verified                bool       `json:"isVerified"`
	VerificationToken       *string    `json:"-"`
	VerificationTokenExpiry *time.Time `json:"-"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

// Author is the public projection of a user attached to recipes and comments.
type Author struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RecipeSummary is the short recipe form listed on a profile.
type RecipeSummary struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image,omitempty"`
	Ingredients []string `json:"ingredients"`
}

// Profile is a user together with the three recipe relationship views.
// Each view is derived from the relation tables, never stored on the user.
type Profile struct {
	User
	SavedRecipes   []RecipeSummary `json:"savedRecipes"`
	CreatedRecipes []RecipeSummary `json:"createdRecipes"`
	FavRecipes     []RecipeSummary `json:"favRecipes"`
}
