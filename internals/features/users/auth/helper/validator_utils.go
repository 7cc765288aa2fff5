package helpers

import (
	"errors"
	"regexp"
)

var (
	reLetter = regexp.MustCompile(`[A-Za-z]`)
	reDigit  = regexp.MustCompile(`[0-9]`)
)

func IsAlphaNumeric(s string) bool {
	return reLetter.MatchString(s) && reDigit.MatchString(s)
}

func ValidatePassword(p string) error {
	if len(p) < 8 {
		return errors.New("must be at least 8 characters")
	}
	if len(p) > 72 {
		return errors.New("must be at most 72 characters")
	}
	if !IsAlphaNumeric(p) {
		return errors.New("must contain letters and numbers")
	}
	return nil
}
