package validation

// MinNameLength is the minimum length of account and team names.
const MinNameLength = 4

// ValidateEntityName checks an account or team name: minimum length, no
// whitespace, alphanumerics plus dash, underscore and dot only. The caller
// trims surrounding whitespace before validating.
func ValidateEntityName(field, name string) []FieldError {
	var errs []FieldError

	if len(name) < MinNameLength {
		errs = append(errs, FieldError{Field: field, Message: "name is too short"})
		return errs
	}
	for _, r := range name {
		if !allowedNameRune(r) {
			errs = append(errs, FieldError{Field: field, Message: "name contains disallowed characters"})
			break
		}
	}

	return errs
}

func allowedNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}
