// Package password wraps the one-way hash capability used for stored
// credentials. Plaintext is never compared directly.
package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a salted digest from plain.
func Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest.
func Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
