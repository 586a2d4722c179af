package security

import (
	"golang.org/x/crypto/bcrypt"

	"userhub-backend/pkg/config"
	pkgerrors "userhub-backend/pkg/errors"
)

// bcrypt rejects inputs longer than 72 bytes outright.
const maxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of the provided password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", pkgerrors.New(pkgerrors.CodeBadRequest, "password is required")
	}
	if len(password) > maxPasswordBytes {
		return "", pkgerrors.New(pkgerrors.CodeBadRequest, "password must be at most 72 bytes")
	}

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}
	return string(hash), nil
}

// VerifyPassword returns true when the password matches the stored hash.
// A malformed hash is reported as an error, a mismatch is not.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch err {
	case nil:
		return true, nil
	case bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, err
	}
}
