// Package validation holds the field-level input rules shared by the
// account and team handlers.
package validation

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
