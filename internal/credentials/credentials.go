// Package credentials wraps password hashing so no other package touches
// bcrypt directly.
package credentials

import "golang.org/x/crypto/bcrypt"

// Hash derives a one-way, salted hash of password. The salt is generated
// per call and embedded in the output.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
