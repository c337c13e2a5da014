package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyUserID indicates the user identifier is empty
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrInvalidUserID indicates the user identifier contains unsupported characters
	ErrInvalidUserID = errors.New("user id may only contain letters, digits, '-', '_', '.' and '@'")

	// ErrUserIDTooLong indicates the user identifier exceeds MaxUserIDLength
	ErrUserIDTooLong = errors.New("user id must be at most 64 characters")

	// ErrEmptyName indicates the display name is empty
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptyEmail indicates the email is empty
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates the email is not of the form local@domain.tld
	ErrInvalidEmail = errors.New("email address is not valid")

	// ErrReservedCharacter indicates a field contains a storage delimiter
	ErrReservedCharacter = errors.New("field cannot contain '|', ',' or line breaks")

	// ErrInvalidRouteInfo indicates the route description contains a record delimiter
	ErrInvalidRouteInfo = errors.New("route info cannot contain '|' or line breaks")
)

// MaxUserIDLength is the longest accepted user identifier
const MaxUserIDLength = 64

var (
	userIDRegex = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)
	emailRegex  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// UserValidator validates user identity fields before they reach the ledger
type UserValidator struct{}

// NewUserValidator creates a new user validator instance
func NewUserValidator() *UserValidator {
	return &UserValidator{}
}

// ValidateUserID validates a user identifier and returns it trimmed
func (v *UserValidator) ValidateUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrEmptyUserID
	}
	if len(userID) > MaxUserIDLength {
		return "", ErrUserIDTooLong
	}
	if !userIDRegex.MatchString(userID) {
		return "", ErrInvalidUserID
	}
	return userID, nil
}

// ValidateName validates a display name and returns it trimmed
func (v *UserValidator) ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if containsReserved(name) {
		return "", ErrReservedCharacter
	}
	return name, nil
}

// ValidateEmail validates an email address and returns it trimmed and lower-cased
func (v *UserValidator) ValidateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmptyEmail
	}
	if containsReserved(email) {
		return "", ErrReservedCharacter
	}
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// ValidateRouteInfo trims a free-text route description. Commas are allowed.
func (v *UserValidator) ValidateRouteInfo(routeInfo string) (string, error) {
	routeInfo = strings.TrimSpace(routeInfo)
	if strings.ContainsAny(routeInfo, "|\r\n") {
		return "", ErrInvalidRouteInfo
	}
	return routeInfo, nil
}

// Validate validates all three identity fields at once
func (v *UserValidator) Validate(userID, name, email string) (string, string, string, error) {
	id, err := v.ValidateUserID(userID)
	if err != nil {
		return "", "", "", err
	}
	n, err := v.ValidateName(name)
	if err != nil {
		return "", "", "", err
	}
	e, err := v.ValidateEmail(email)
	if err != nil {
		return "", "", "", err
	}
	return id, n, e, nil
}

func containsReserved(s string) bool {
	return strings.ContainsAny(s, "|,\r\n")
}
