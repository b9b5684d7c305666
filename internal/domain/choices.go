package domain

import "time"

// ChoiceEntry is one selectable option in choices.json.
type ChoiceEntry struct {
	Name  string        `json:"name"`
	Slug  string        `json:"slug"`
	URL   string        `json:"url"`
	AllIn []ChoiceEntry `json:"all_in,omitempty"`
}

// ChoiceCategory groups subcategory options under a category.
type ChoiceCategory struct {
	Name string        `json:"name"`
	Slug string        `json:"slug"`
	URL  string        `json:"url"`
	Subs []ChoiceEntry `json:"subs"`
}

// Choices is the compact UI projection of a taxonomy.
type Choices struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Version     string           `json:"version"`
	Categories  []ChoiceCategory `json:"categories"`
}
