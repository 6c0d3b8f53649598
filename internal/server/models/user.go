// Package models defines server-side data models persisted in the store.
package models

import "time"

// User is a registered account. PasswordHash is a bcrypt digest; the
// plaintext password is never stored.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
