package models

import (
	"strings"

	"gorm.io/gorm"
)

// Role tags carried by every user account. The role is assigned at
// registration and never changes afterwards.
const (
	RoleAdmin       = "admin"
	RoleCompanyUser = "company_user"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`

	// Account status. IsActive carries no column default: admin accounts must
	// persist as inactive on insert, and a default would make GORM omit the
	// zero value and silently activate them.
	Role     string `gorm:"size:20;not null;default:'company_user'" json:"role"`
	IsActive bool   `gorm:"not null" json:"is_active"`

	// Relations
	ManagedCompanies    []Company `gorm:"foreignKey:AdminUserID" json:"managed_companies,omitempty"`
	AccessibleCompanies []Company `gorm:"many2many:company_approved_admins" json:"accessible_companies,omitempty"`
}

// FullName returns the first and last name with a space in between.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
