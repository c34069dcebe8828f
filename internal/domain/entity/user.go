package entity

import "time"

// User is a credential + role record. Emails are unique and stored
// lowercase.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// CanReview reports whether the user's role permits workflow review actions
// (reject, forward, approve).
func (u *User) CanReview() bool {
	return RoleAtLeast(u.Role, RolePM)
}

// roleRank orders roles from least to most privileged.
var roleRank = map[string]int{
	RoleTechnician: 0,
	RolePM:         1,
	RoleAdmin:      2,
	RoleSuperadmin: 3,
}

// RoleAtLeast reports whether role carries at least the privilege of min.
// Unknown roles rank below technician.
func RoleAtLeast(role, min string) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	return r >= roleRank[min]
}

// ValidRole reports whether the role name is one of the known roles.
func ValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}
