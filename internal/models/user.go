package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognized by the platform. Operators review manual payments and
// decide withdrawal requests.
const (
	RoleUser     = "user"
	RoleOperator = "operator"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Suspended    bool      `json:"suspended"`
	KYCVerified  bool      `json:"kyc_verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsOperator reports whether the user may act on other users' withdrawal requests.
func (u *User) IsOperator() bool {
	return u.Role == RoleOperator
}
