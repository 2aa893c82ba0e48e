// Package policy is the single place where actor capabilities are resolved.
// Every listing and detail read goes through one of these scope functions, so
// the role branching lives here instead of being repeated per collection.
// A record outside the returned scope reads as not found, never as forbidden.
package policy

import (
	"gorm.io/gorm"

	"benchlist/models"
)

// ManagesCompany reports whether u is the owning user of the given company.
// Responding to workflow requests and mutating registries require ownership;
// the admin role grants read access only.
func ManagesCompany(db *gorm.DB, u *models.User, companyID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Company{}).
		Where("id = ? AND admin_user_id = ?", companyID, u.ID).
		Count(&count).Error
	return count > 0, err
}

// Users scopes user reads: admins see every account, company users see only
// themselves.
func Users(db *gorm.DB, u *models.User) *gorm.DB {
	if u.IsAdmin() {
		return db.Model(&models.User{})
	}
	return db.Model(&models.User{}).Where("id = ?", u.ID)
}

// Companies scopes company reads: admins see all companies, company users see
// the companies they manage.
func Companies(db *gorm.DB, u *models.User) *gorm.DB {
	if u.IsAdmin() {
		return db.Model(&models.Company{})
	}
	return db.Model(&models.Company{}).Where("admin_user_id = ?", u.ID)
}

// AdminRequests scopes admin access requests: company users see requests
// raised against their companies, admins see the requests they raised.
func AdminRequests(db *gorm.DB, u *models.User) *gorm.DB {
	if u.Role == models.RoleCompanyUser {
		return db.Model(&models.AdminAccessRequest{}).
			Where("company_id IN (SELECT id FROM companies WHERE admin_user_id = ? AND deleted_at IS NULL)", u.ID)
	}
	return db.Model(&models.AdminAccessRequest{}).Where("user_id = ?", u.ID)
}

// Employees scopes employee reads: admins see every active employee, company
// users see only the rosters of companies they manage.
func Employees(db *gorm.DB, u *models.User) *gorm.DB {
	query := db.Model(&models.Employee{}).Where("employees.is_active = ?", true)
	if u.IsAdmin() {
		return query
	}
	return query.
		Where("employees.company_id IN (SELECT id FROM companies WHERE admin_user_id = ? AND deleted_at IS NULL)", u.ID)
}

// BenchRequests scopes bench requests to those the actor's companies sent or
// received.
func BenchRequests(db *gorm.DB, u *models.User) *gorm.DB {
	return db.Model(&models.BenchRequest{}).
		Where(`requesting_company_id IN (SELECT id FROM companies WHERE admin_user_id = @uid AND deleted_at IS NULL)
			OR employee_id IN (SELECT id FROM employees WHERE company_id IN
				(SELECT id FROM companies WHERE admin_user_id = @uid AND deleted_at IS NULL) AND deleted_at IS NULL)`,
			map[string]interface{}{"uid": u.ID})
}

// ListingOptions carries the client-supplied read flags for listings.
type ListingOptions struct {
	// ExcludeOwn drops listings from the actor's own companies.
	ExcludeOwn bool
	// IncludeInactive widens the read past active listings. Mutation checks
	// still restrict who can act on inactive and closed listings.
	IncludeInactive bool
}

// Listings scopes resource listing reads. Active listings are
// marketplace-wide: every authenticated actor sees them regardless of
// ownership.
func Listings(db *gorm.DB, u *models.User, opts ListingOptions) *gorm.DB {
	query := db.Model(&models.ResourceListing{}).Where("resource_listings.is_active = ?", true)
	if !opts.IncludeInactive {
		query = query.Where("resource_listings.status = ?", models.ListingActive)
	}
	if opts.ExcludeOwn {
		query = query.
			Where("resource_listings.company_id NOT IN (SELECT id FROM companies WHERE admin_user_id = ? AND deleted_at IS NULL)", u.ID)
	}
	return query
}

// OwnListings scopes listings to the actor's companies with no status filter.
func OwnListings(db *gorm.DB, u *models.User) *gorm.DB {
	return db.Model(&models.ResourceListing{}).
		Where("company_id IN (SELECT id FROM companies WHERE admin_user_id = ? AND deleted_at IS NULL)", u.ID)
}

// ResourceRequests scopes resource requests to those the actor's companies
// sent or received.
func ResourceRequests(db *gorm.DB, u *models.User) *gorm.DB {
	return db.Model(&models.ResourceRequest{}).
		Where(`requesting_company_id IN (SELECT id FROM companies WHERE admin_user_id = @uid AND deleted_at IS NULL)
			OR resource_listing_id IN (SELECT id FROM resource_listings WHERE company_id IN
				(SELECT id FROM companies WHERE admin_user_id = @uid AND deleted_at IS NULL) AND deleted_at IS NULL)`,
			map[string]interface{}{"uid": u.ID})
}

// SentResourceRequests scopes resource requests to those raised by the
// actor's companies.
func SentResourceRequests(db *gorm.DB, u *models.User) *gorm.DB {
	return db.Model(&models.ResourceRequest{}).
		Where("requesting_company_id IN (SELECT id FROM companies WHERE admin_user_id = ? AND deleted_at IS NULL)", u.ID)
}

// ReceivedResourceRequests scopes resource requests to those raised against
// the actor's companies' listings.
func ReceivedResourceRequests(db *gorm.DB, u *models.User) *gorm.DB {
	return db.Model(&models.ResourceRequest{}).
		Where(`resource_listing_id IN (SELECT id FROM resource_listings WHERE company_id IN
			(SELECT id FROM companies WHERE admin_user_id = ? AND deleted_at IS NULL) AND deleted_at IS NULL)`, u.ID)
}
