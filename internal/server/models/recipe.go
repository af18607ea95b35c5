package models

import "time"

// Step is one instruction of a recipe. Time is in minutes.
type Step struct {
	StepNumber  int    `json:"stepNumber"`
	Instruction string `json:"instruction"`
	Time        int    `json:"time"`
}

// Recipe is a recipe with its relationship views attached.
//
// Likes, SavedBy and Comments are sets/lists of ids read from the relation
// tables; only the interaction coordinator changes them.
type Recipe struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Ingredients []string  `json:"ingredients"`
	Steps       []Step    `json:"steps"`
	Image       string    `json:"image,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedBy   Author    `json:"createdBy"`
	Likes       []string  `json:"likes"`
	SavedBy     []string  `json:"savedBy"`
	Comments    []string  `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecipeFields are the mutable fields of a recipe, as supplied by the owner.
type RecipeFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Steps       []Step   `json:"steps"`
	Image       string   `json:"image"`
}

// RecipePatch is an owner's update. Nil fields keep the stored value.
type RecipePatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Ingredients *[]string `json:"ingredients"`
	Steps       *[]Step   `json:"steps"`
	Image       *string   `json:"image"`
}

// Apply lays the patch over the mutable fields of r.
func (p RecipePatch) Apply(r *Recipe) RecipeFields {
	out := RecipeFields{
		Title:       r.Title,
		Description: r.Description,
		Ingredients: r.Ingredients,
		Steps:       r.Steps,
		Image:       r.Image,
	}
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Ingredients != nil {
		out.Ingredients = *p.Ingredients
	}
	if p.Steps != nil {
		out.Steps = *p.Steps
	}
	if p.Image != nil {
		out.Image = *p.Image
	}
	return out
}
