// Package form declares the input field descriptors used by the edit and
// create pages. A Form both describes itself (for the HTML and JSON form
// views) and parses submitted values, so the handlers only ever see
// validated, typed values.
package form

import (
	"fmt"
	"net/url"

	"github.com/whoyou/whoyou/internal/api/validation"
)

// Kind enumerates the supported input widgets.
type Kind string

const (
	String      Kind = "string"
	Password    Kind = "password"
	Text        Kind = "text"
	MultiSelect Kind = "multiselect"
	Hidden      Kind = "hidden"
)

// Field describes one input field with its validation rules.
type Field struct {
	Name      string   `json:"name"`
	Kind      Kind     `json:"kind"`
	Title     string   `json:"title,omitempty"`
	Descr     string   `json:"descr,omitempty"`
	Required  bool     `json:"required,omitempty"`
	MinLength int      `json:"minLength,omitempty"`
	Options   []string `json:"options,omitempty"`
	Default   []string `json:"default,omitempty"`
}

// Form is an ordered list of fields.
type Form struct {
	Fields []Field
}

// Without returns a copy of the form with the named fields removed; used
// when a field does not apply to the current login (the current-password
// check is skipped for site admins).
func (f Form) Without(names ...string) Form {
	skip := make(map[string]bool, len(names))
	for _, name := range names {
		skip[name] = true
	}
	out := Form{Fields: make([]Field, 0, len(f.Fields))}
	for _, field := range f.Fields {
		if !skip[field.Name] {
			out.Fields = append(out.Fields, field)
		}
	}
	return out
}

// WithOptions returns a copy of the form with the named multi-select field's
// options and defaults filled in.
func (f Form) WithOptions(name string, options, defaults []string) Form {
	out := Form{Fields: make([]Field, len(f.Fields))}
	copy(out.Fields, f.Fields)
	for i := range out.Fields {
		if out.Fields[i].Name == name {
			out.Fields[i].Options = options
			out.Fields[i].Default = defaults
		}
	}
	return out
}

// Values holds parsed field values keyed by field name. Multi-select fields
// parse to []string, everything else to string.
type Values map[string]any

// Get returns the string value of a field, or empty.
func (v Values) Get(name string) string {
	s, _ := v[name].(string)
	return s
}

// List returns the []string value of a multi-select field, or nil.
func (v Values) List(name string) []string {
	l, _ := v[name].([]string)
	return l
}

// Parse validates submitted values against the form's fields and returns
// the typed values plus any field errors.
func (f Form) Parse(submitted url.Values) (Values, []validation.FieldError) {
	values := make(Values, len(f.Fields))
	var errs []validation.FieldError

	for _, field := range f.Fields {
		if field.Kind == MultiSelect {
			selected := submitted[field.Name]
			if len(field.Options) > 0 {
				allowed := make(map[string]bool, len(field.Options))
				for _, opt := range field.Options {
					allowed[opt] = true
				}
				filtered := make([]string, 0, len(selected))
				for _, s := range selected {
					if allowed[s] {
						filtered = append(filtered, s)
					} else {
						errs = append(errs, validation.FieldError{
							Field:   field.Name,
							Message: fmt.Sprintf("%q is not an allowed option", s),
						})
					}
				}
				selected = filtered
			}
			if field.Required && len(selected) == 0 {
				errs = append(errs, validation.FieldError{Field: field.Name, Message: "selection is required"})
			}
			values[field.Name] = selected
			continue
		}

		value := submitted.Get(field.Name)
		if field.Required && value == "" {
			errs = append(errs, validation.FieldError{Field: field.Name, Message: "value is required"})
		}
		if value != "" && field.MinLength > 0 && len(value) < field.MinLength {
			errs = append(errs, validation.FieldError{
				Field:   field.Name,
				Message: fmt.Sprintf("value must be at least %d characters", field.MinLength),
			})
		}
		values[field.Name] = value
	}

	return values, errs
}
