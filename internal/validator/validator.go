package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidGigType  = errors.New("invalid gig type")
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

var categories = map[string]struct{}{
	"tech":           {},
	"creative":       {},
	"education":      {},
	"household":      {},
	"transportation": {},
	"care":           {},
	"mixed":          {},
	"other":          {},
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateCategory(category string) error {
	if _, ok := categories[category]; !ok {
		return ErrInvalidCategory
	}
	return nil
}

func ValidateGigType(gigType string) error {
	if gigType != "find_help" && gigType != "offer_help" {
		return ErrInvalidGigType
	}
	return nil
}
