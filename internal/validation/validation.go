// Package validation checks account fields submitted at registration.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// MaxPasswordBytes is bcrypt's input limit; longer passwords would be silently truncated.
const MaxPasswordBytes = 72

// ValidationError represents a validation error on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func check(field string, value interface{}, rules ...ozzo.Rule) error {
	if err := ozzo.Validate(value, rules...); err != nil {
		return ValidationError{Field: field, Message: err.Error()}
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	return check("email", strings.TrimSpace(email),
		ozzo.Required.Error("email is required"),
		ozzo.Match(emailRegex).Error("invalid email format"),
	)
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes)}
	}
	return check("password", password,
		ozzo.Required.Error("password is required"),
		ozzo.RuneLength(8, 0).Error("password must be at least 8 characters"),
	)
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	return check("name", strings.TrimSpace(name),
		ozzo.Required.Error("name is required"),
		ozzo.RuneLength(2, 100).Error("name must be between 2 and 100 characters"),
	)
}
