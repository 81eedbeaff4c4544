package models

import "time"

// AdminUser is a platform operator account. Only the bcrypt hash of the
// password is stored.
type AdminUser struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
