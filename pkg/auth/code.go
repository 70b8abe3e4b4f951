package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	CodeDigits = 6
	CodeCost   = bcrypt.DefaultCost
)

// ErrCodeMismatch is returned when a code does not match its hash.
var ErrCodeMismatch = errors.New("code does not match")

var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a uniformly random CodeDigits-digit code, zero padded.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeDigits, n.Int64()), nil
}

func HashCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("code cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), CodeCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareCode reports ErrCodeMismatch for a wrong code or an empty hash.
func CompareCode(hashedCode, code string) error {
	if hashedCode == "" {
		return ErrCodeMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(code)); err != nil {
		return ErrCodeMismatch
	}
	return nil
}
