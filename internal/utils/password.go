package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// BcryptHasher binds a cost to HashPassword/VerifyPassword so services can
// depend on a hashing interface instead of the package functions.
type BcryptHasher struct{ Cost int }

func (h BcryptHasher) Hash(plain string) (string, error) { return HashPassword(plain, h.Cost) }

func (h BcryptHasher) Verify(hash, plain string) bool { return VerifyPassword(hash, plain) }
