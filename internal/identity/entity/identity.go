package entity

import "time"

// Identity is a registered account row in the `identities` table.
type Identity struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// PublicView is the outward projection of an Identity. It has no hash field.
type PublicView struct {
	ID    string
	Name  string
	Email string
}

// Public returns the projection safe to hand to callers.
func (i *Identity) Public() PublicView {
	return PublicView{ID: i.ID, Name: i.Name, Email: i.Email}
}
