package user

import (
	"context"

	"github.com/academyhub/paycore/internal/types"
)

// User is the contact record of a student or academy member
type User struct {
	ID    string  `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Email string  `db:"email" json:"email"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	types.BaseModel
}

// Repository reads users
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
}
