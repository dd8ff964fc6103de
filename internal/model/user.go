package model

import "time"

// User is a registered account. Usernames are unique and compared verbatim
// (no case folding). PasswordHash is a bcrypt hash and never leaves the server.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserView is the client-facing projection of a User.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// View returns the public projection of the user.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username}
}
