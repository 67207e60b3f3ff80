package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword is an explicit transformation on the user-creation path; the
// stored record always carries the hash, never the secret.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
