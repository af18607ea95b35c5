package models

// Relation names a user⇄recipe many-to-many relation. The value is the
// backing table; each row is one (user_id, recipe_id) pair.
type Relation string

const (
	// RelationLike backs Recipe.Likes and the user's favRecipes.
	RelationLike Relation = "recipe_likes"
	// RelationSave backs Recipe.SavedBy and the user's savedRecipes.
	RelationSave Relation = "recipe_saves"
)

// Valid reports whether r is one of the known relations.
func (r Relation) Valid() bool {
	return r == RelationLike || r == RelationSave
}
