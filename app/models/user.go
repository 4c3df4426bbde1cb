package models

import "time"

// User is a shop account. Customers and staff share the table; staff are
// told apart by IsAdmin or the admin role.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Phone     string     `gorm:"size:20" json:"phone"`
	Password  string     `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialised
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	IsAdmin   bool       `gorm:"not null;default:false" json:"is_admin"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Roles     []Role     `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleName is the role written into the user's tokens.
func (u User) RoleName() string {
	if u.IsAdmin || u.HasRole(RoleAdmin) {
		return RoleAdmin
	}
	return RoleCustomer
}

// RoleNames lists the names of the user's roles.
func (u User) RoleNames() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Name)
	}
	return out
}

// Role names seeded on every install.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Role is a named permission group.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenBlacklist holds the ids of revoked tokens until they would have
// expired anyway.
type TokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JTI       string    `gorm:"column:jti;uniqueIndex;size:36;not null" json:"jti"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (TokenBlacklist) TableName() string { return "token_blacklist" }
