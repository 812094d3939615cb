// Package validation holds field checks shared by the account and ride
// services. Each check returns a validation error ready to hand back to a
// client, or nil.
package validation

import (
	"regexp"
	"strings"

	"ridesharing/internal/apperrors"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// Email requires a plausible address of at most 200 characters.
func Email(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 200 || !emailRegex.MatchString(email) {
		return apperrors.Validation("invalid email")
	}
	return nil
}

// Phone accepts E.164-like numbers. Blank is allowed; callers that need a
// number check for it themselves.
func Phone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if len(phone) > 50 || !phoneRegex.MatchString(phone) {
		return apperrors.Validation("invalid phone number")
	}
	return nil
}

// Name checks a display name; field names the input in the message.
func Name(field, name string) error {
	if n := len(strings.TrimSpace(name)); n < 2 || n > 200 {
		return apperrors.Validation("invalid " + field)
	}
	return nil
}

func Password(password string) error {
	if len(password) < 6 || len(password) > 100 {
		return apperrors.Validation("password must be 6-100 characters")
	}
	return nil
}

func Coordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperrors.Validation("latitude or longitude out of range")
	}
	return nil
}

// First returns the first non-nil error, so a caller can list its checks in
// the order they should be reported.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
