package models

import (
	"time"

	"gorm.io/gorm"
)

// Company represents an organization using the marketplace. Every company is
// managed by exactly one owning user; admin-role users gain access only after
// an approved AdminAccessRequest adds them to ApprovedAdmins.
type Company struct {
	gorm.Model

	Name        string `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Phone       string `gorm:"size:20" json:"phone"`
	Address     string `gorm:"type:text" json:"address"`
	Website     string `json:"website"`
	Description string `gorm:"type:text" json:"description"`

	AdminUserID uint `gorm:"not null;index" json:"admin_user_id"`
	AdminUser   User `json:"-"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	ApprovedAdmins   []User            `gorm:"many2many:company_approved_admins" json:"approved_admins,omitempty"`
	Employees        []Employee        `gorm:"foreignKey:CompanyID" json:"employees,omitempty"`
	ResourceListings []ResourceListing `gorm:"foreignKey:CompanyID" json:"resource_listings,omitempty"`
}

// AdminAccessRequest statuses. A request leaves pending exactly once and is
// never deleted afterwards.
const (
	AdminRequestPending  = "pending"
	AdminRequestApproved = "approved"
	AdminRequestRejected = "rejected"
)

// ValidAdminRequestResponse reports whether status is an accepted terminal
// state for an admin access request. There is no cancelled state here.
func ValidAdminRequestResponse(status string) bool {
	return status == AdminRequestApproved || status == AdminRequestRejected
}

// AdminAccessRequest mediates an admin user's request to be approved for a
// company. The requesting user is created inactive and stays inactive unless
// the company owner approves.
type AdminAccessRequest struct {
	gorm.Model

	UserID    uint    `gorm:"not null;index" json:"user_id"`
	User      User    `json:"-"`
	CompanyID uint    `gorm:"not null;index" json:"company_id"`
	Company   Company `json:"-"`

	Status          string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	Message         string     `gorm:"type:text" json:"message"`
	ResponseMessage string     `gorm:"type:text" json:"response_message"`
	RespondedAt     *time.Time `json:"responded_at"`
}
