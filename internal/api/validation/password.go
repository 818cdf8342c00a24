package validation

import "fmt"

// ValidateNewPassword checks a new password against the configured minimum
// length and its confirmation field.
func ValidateNewPassword(password, confirm string, minLength int) []FieldError {
	var errs []FieldError

	if len(password) < minLength {
		errs = append(errs, FieldError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", minLength),
		})
	}
	if password != confirm {
		errs = append(errs, FieldError{
			Field:   "confirm_password",
			Message: "password confirmation failed",
		})
	}

	return errs
}
