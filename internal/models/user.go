package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is the persisted identity that accompanies the bearer token.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email,omitempty"`
	Role     UserRole `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Credentials is what the session context persists between runs.
type Credentials struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}
