package hash

import "golang.org/x/crypto/bcrypt"

// Password hashes a plaintext password with a per-hash random salt.
func Password(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// Verify reports whether plain matches hash. Malformed hashes verify
// as false rather than erroring.
func Verify(plain string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}
