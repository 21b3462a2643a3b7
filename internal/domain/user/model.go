package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/emtct/emtct/internal/platform/auth"
)

// AccountStatus gates login: inactive accounts keep their history but cannot
// sign in.
type AccountStatus string

const (
	StatusActive   AccountStatus = "Active"
	StatusInactive AccountStatus = "Inactive"
)

func (s AccountStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User is a dashboard account. Facility and district are empty for roles that
// do not carry that scope (an admin has neither; a district lead has no
// facility).
type User struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	Email     string        `db:"email" json:"email"`
	Name      string        `db:"name" json:"name"`
	Role      auth.Role     `db:"role" json:"role"`
	Facility  string        `db:"facility" json:"facility,omitempty"`
	District  string        `db:"district" json:"district,omitempty"`
	Status    AccountStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Actor converts the account into the token claims identity.
func (u *User) Actor() auth.Actor {
	return auth.Actor{
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		Facility: u.Facility,
		District: u.District,
	}
}
