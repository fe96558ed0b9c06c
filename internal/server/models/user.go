// Package models holds the server-side entities.
package models

// User is an account row of the usuario table. Password always holds the
// encoded credential, never the plain text.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"nombre" json:"nombre"`
	Password string `db:"password" json:"-"`
}

// Persisted reports whether the user has been assigned an id by storage.
func (u *User) Persisted() bool {
	return u.ID != 0
}
