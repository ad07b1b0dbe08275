package model

// Category tags tasks by life area (work, health, shopping, etc.).
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryInput carries caller-supplied fields for a new category.
type CategoryInput struct {
	Name  string
	Color string
}

// CategoryPatch is a partial update. Nil fields keep the stored value.
type CategoryPatch struct {
	Name  *string
	Color *string
}

// Apply merges the patch into c field by field.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
}

// DefaultCategoryColor is used when a category is added without a colour.
const DefaultCategoryColor = "#FF5733"

// DefaultCategories seeds the category list when nothing is stored yet.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Personal", Color: "#FF5733"},
		{ID: "2", Name: "Work", Color: "#33FF57"},
		{ID: "3", Name: "Shopping", Color: "#3357FF"},
		{ID: "4", Name: "Health", Color: "#FF33F5"},
		{ID: "5", Name: "Education", Color: "#33FFF5"},
	}
}
