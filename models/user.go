package models

// User is one registered account.
// It maps to the `users` table in SQLite. Password is stored as given.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
	Password string `db:"password" json:"-"`
}
