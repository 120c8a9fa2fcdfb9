// Package cryptox hashes and verifies administrator passwords.
package cryptox

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor for new hashes.
var Cost = bcrypt.DefaultCost

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// dummyHash is compared against when the account does not exist, so a
// failed lookup costs as much as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("council-dummy-password"), bcrypt.DefaultCost)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, Cost)
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password []byte) bool {
	err := bcrypt.CompareHashAndPassword(hash, password)
	return err == nil
}

// BurnCompare spends the time of one password check without a real hash.
func BurnCompare(password []byte) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, password)
}
