package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a staff account. The password hash never leaves the API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Roles accepted at registration. Admin passes every role guard.
var Roles = []string{"receptionist", "nurse", "doctor", "admin"}

const minPasswordLen = 8

func (u *User) Normalize() {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Role = strings.ToLower(strings.TrimSpace(u.Role))
}

func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if !validRole(u.Role) {
		return fmt.Errorf("%w: role must be one of %s", ErrValidation, strings.Join(Roles, ", "))
	}
	return nil
}

func validRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
