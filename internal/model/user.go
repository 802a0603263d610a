package model

import "time"

// User is a registered account.
//
// Password always holds a bcrypt hash, never the plaintext. The field is
// serialized because the users file is the only place the hash lives; HTTP
// handlers must respond with PublicUser instead of User.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// PublicUser is the part of a User that is safe to return to clients.
type PublicUser struct {
	Email string `json:"email"`
}

// Public strips everything but the email.
func (u *User) Public() PublicUser {
	return PublicUser{Email: u.Email}
}
