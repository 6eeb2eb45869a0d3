package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID                   string
	FirstName            string
	LastName             string
	Email                string
	Age                  int
	PasswordHash         string
	CartID               string
	Role                 Role
	ResetPasswordToken   string
	ResetPasswordExpires time.Time
}

// UserPatch carries the fields an admin may change; nil fields are left as is.
type UserPatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Age       *int    `json:"age,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}

// Profile is the user view returned to clients; it never carries the hash.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Age       int    `json:"age"`
	CartID    string `json:"cart,omitempty"`
	Role      Role   `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Age:       u.Age,
		CartID:    u.CartID,
		Role:      u.Role,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
