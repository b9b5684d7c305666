package assemble

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"taxonomy/builder/internal/domain"
)

var ErrInvalidDocument = errors.New("invalid taxonomy document")

var idPatterns = map[domain.ItemType]*regexp.Regexp{
	domain.ItemTypeCategory:    regexp.MustCompile(`^category:[a-z0-9]+(?:-[a-z0-9]+)*$`),
	domain.ItemTypeSubcategory: regexp.MustCompile(`^subcategory:[a-z0-9-]*:[a-z0-9]+(?:-[a-z0-9]+)*$`),
	domain.ItemTypeAllIn:       regexp.MustCompile(`^all_in:[a-z0-9-]*:[a-z0-9]+(?:-[a-z0-9]+)*$`),
}

// Issue is a single validation failure.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return i.Field + ": " + i.Message
}

// Validator checks documents before they are written.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("itemtype", func(fl validator.FieldLevel) bool {
		return domain.ItemType(fl.Field().String()).Valid()
	})
	return &Validator{validate: v}
}

// Validate returns nil or an error wrapping ErrInvalidDocument.
func (v *Validator) Validate(doc domain.Document) error {
	issues := v.Issues(doc)
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d issue(s), first: %s", ErrInvalidDocument, len(issues), issues[0])
}

// Issues lists every failure found in doc.
func (v *Validator) Issues(doc domain.Document) []Issue {
	var issues []Issue

	if err := v.validate.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []Issue{{Field: "document", Message: err.Error()}}
		}
		for _, e := range fieldErrs {
			issues = append(issues, Issue{Field: e.Namespace(), Message: formatFieldError(e)})
		}
	}

	type itemKey struct{ id, parentID string }
	seen := make(map[itemKey]int, len(doc.Items))
	for i, item := range doc.Items {
		field := fmt.Sprintf("Document.Items[%d]", i)

		if pattern, ok := idPatterns[item.Type]; ok && !pattern.MatchString(item.ID) {
			issues = append(issues, Issue{Field: field + ".ID", Message: fmt.Sprintf("%q does not match %s id format", item.ID, item.Type)})
		}
		if item.Type == domain.ItemTypeCategory && (item.Parent != nil || item.ParentSlug != nil || item.ParentID != nil) {
			issues = append(issues, Issue{Field: field, Message: "category must not carry parent fields"})
		}
		if item.ParentID != nil && item.ParentSlug == nil {
			issues = append(issues, Issue{Field: field + ".ParentSlug", Message: "required when parent_id is set"})
		}
		if item.ID == "" {
			continue
		}
		// All-in ids repeat across categories that share a subcategory
		// slug, so an id is only unique under its parent.
		key := itemKey{id: item.ID, parentID: item.ParentIDValue()}
		if prev, dup := seen[key]; dup {
			issues = append(issues, Issue{Field: field + ".ID", Message: fmt.Sprintf("duplicate of Document.Items[%d]", prev)})
			continue
		}
		seen[key] = i
	}

	return issues
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s element(s)", e.Param())
	case "itemtype":
		return fmt.Sprintf("unknown item type %q", e.Value())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
