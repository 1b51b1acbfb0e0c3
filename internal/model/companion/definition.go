package companion

import (
	"strings"
	"unicode/utf8"
)

// Instructions and seed need enough text to anchor the model in the
// persona; shorter values produce characters that drift.
const (
	MinInstructionsLen = 200
	MinSeedLen         = 200
)

// Definition carries the authoring form fields for both create and
// update. OwnerID and timestamps are never part of the input.
type Definition struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	Seed         string `json:"seed"`
	ImageRef     string `json:"imageRef"`
	CategoryID   string `json:"categoryId"`
}

// ValidationError lists every authoring field that failed its
// constraint so the caller can correct the whole form in one pass.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid companion definition: " + strings.Join(e.Fields, ", ")
}

// Validate checks all field constraints and returns a ValidationError
// naming the failing fields, or nil when the definition is complete.
// Category existence is checked by the authoring service, which holds
// the category store.
func (d Definition) Validate() error {
	var fields []string

	if strings.TrimSpace(d.Name) == "" {
		fields = append(fields, "name")
	}
	if strings.TrimSpace(d.Description) == "" {
		fields = append(fields, "description")
	}
	if utf8.RuneCountInString(d.Instructions) < MinInstructionsLen {
		fields = append(fields, "instructions")
	}
	if utf8.RuneCountInString(d.Seed) < MinSeedLen {
		fields = append(fields, "seed")
	}
	if strings.TrimSpace(d.ImageRef) == "" {
		fields = append(fields, "imageRef")
	}
	if strings.TrimSpace(d.CategoryID) == "" {
		fields = append(fields, "categoryId")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
