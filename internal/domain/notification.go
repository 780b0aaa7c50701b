package domain

// Variant selects how a notification is rendered.
type Variant string

// Notification variants.
const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Notification is a transient, user-facing message describing the outcome of
// a store operation.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Variant     Variant `json:"variant"`
}

// Outcome is the result of a pure state transition. OK is false for business
// rejections (stock limit, full list, missing item); Changed reports whether
// the new state differs from the old one and must be persisted.
type Outcome struct {
	OK           bool
	Changed      bool
	Notification *Notification
}

func notice(variant Variant, title, description string) *Notification {
	return &Notification{Title: title, Description: description, Variant: variant}
}
