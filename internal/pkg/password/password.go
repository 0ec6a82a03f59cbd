// Package password wraps bcrypt for the single admin credential. The
// serve config stores only the hash, produced by the hashpw command.
package password

import "golang.org/x/crypto/bcrypt"

// Hash derives a bcrypt hash for admin_password_hash.
func Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(h), err
}

// Compare reports whether plain matches the stored hash.
func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
