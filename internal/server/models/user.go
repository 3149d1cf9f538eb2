package models

import "time"

// User is a registered account. Salt and Verifier are the argon2id inputs
// and output; they stay inside the credential store.
type User struct {
	ID        string
	UserName  string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
