package domain

// RawItem is a single element detected on a directory page, in document
// order. Href and ParentName are empty when absent.
type RawItem struct {
	Type       ItemType `json:"type"`
	Name       string   `json:"name"`
	Href       string   `json:"href,omitempty"`
	ParentName string   `json:"parent,omitempty"`
}

// Item is a normalized taxonomy record. The parent fields are nil when
// absent; consumers branch on presence, so nil and "" are not the same.
type Item struct {
	ID         string   `json:"id" validate:"required"`
	Type       ItemType `json:"type" validate:"required,itemtype"`
	Name       string   `json:"name" validate:"required"`
	Slug       string   `json:"slug" validate:"required"`
	URL        string   `json:"url"`
	Parent     *string  `json:"parent,omitempty"`
	ParentSlug *string  `json:"parent_slug,omitempty"`
	ParentID   *string  `json:"parent_id,omitempty"`
}

// Clone returns a copy that shares no pointers with i.
func (i Item) Clone() Item {
	out := i
	out.Parent = cloneString(i.Parent)
	out.ParentSlug = cloneString(i.ParentSlug)
	out.ParentID = cloneString(i.ParentID)
	return out
}

// ParentSlugValue returns the parent slug or "" when absent.
func (i Item) ParentSlugValue() string {
	if i.ParentSlug == nil {
		return ""
	}
	return *i.ParentSlug
}

// ParentIDValue returns the parent id or "" when absent.
func (i Item) ParentIDValue() string {
	if i.ParentID == nil {
		return ""
	}
	return *i.ParentID
}

// ParentValue returns the display parent or "" when absent.
func (i Item) ParentValue() string {
	if i.Parent == nil {
		return ""
	}
	return *i.Parent
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
