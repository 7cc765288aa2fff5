package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	authHelper "lurnex_backend/internals/features/users/auth/helper"
	"lurnex_backend/internals/helpers/apperr"
)

// TemporaryPasswordLength is used for admin-issued credentials.
const TemporaryPasswordLength = 8

const tempAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal(err, "failed to hash password")
	}
	return string(b), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GenerateTemporaryPassword returns n characters with at least one letter and one digit.
func GenerateTemporaryPassword(n int) (string, error) {
	if n < 2 {
		n = TemporaryPasswordLength
	}
	max := big.NewInt(int64(len(tempAlphabet)))
	for {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			k, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			sb.WriteByte(tempAlphabet[k.Int64()])
		}
		if s := sb.String(); authHelper.IsAlphaNumeric(s) {
			return s, nil
		}
	}
}

// ValidateNewPassword enforces the password policy on user-chosen passwords.
func ValidateNewPassword(p string) error {
	if err := authHelper.ValidatePassword(p); err != nil {
		return apperr.ValidationFields(map[string][]string{"new_password": {err.Error()}})
	}
	return nil
}
