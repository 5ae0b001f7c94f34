package auth

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

// HashPassword is used by the seed-admin tooling; the server itself only
// ever compares against the configured hash.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
