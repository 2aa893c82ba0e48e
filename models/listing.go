package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Resource listing statuses.
const (
	ListingActive   = "active"
	ListingInactive = "inactive"
	ListingClosed   = "closed"
)

// ValidListingStatus reports whether status is a known listing status.
func ValidListingStatus(status string) bool {
	switch status {
	case ListingActive, ListingInactive, ListingClosed:
		return true
	}
	return false
}

// JSONMap is an extensible key-value bag persisted as a JSON column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONMap", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// ResourceListing is a company's batch announcement of multiple bench
// employees. TotalResources and SkillsSummary are derived from the member set
// and must be recomputed whenever membership changes; they are never edited
// directly.
type ResourceListing struct {
	gorm.Model

	CompanyID uint    `gorm:"not null;index:idx_listing_company_status" json:"company_id"`
	Company   Company `json:"-"`

	Employees []Employee `gorm:"many2many:resource_listing_employees" json:"employees,omitempty"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	StartDate       time.Time  `gorm:"not null;index" json:"start_date"`
	ExpectedEndDate *time.Time `json:"expected_end_date"`

	// Derived aggregates, recomputed on every membership change
	TotalResources int    `gorm:"default:0" json:"total_resources"`
	SkillsSummary  string `gorm:"type:text" json:"skills_summary"`
	Locations      string `gorm:"type:text" json:"locations"`

	Status   string `gorm:"size:20;not null;default:'active';index:idx_listing_company_status" json:"status"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	AdditionalParams JSONMap `gorm:"type:text" json:"additional_params"`
}

// RecomputeAggregates re-derives TotalResources and SkillsSummary from the
// loaded member set. Callers persist the result in the same transaction that
// changed the membership.
func (l *ResourceListing) RecomputeAggregates() {
	l.TotalResources = len(l.Employees)

	seen := make(map[string]struct{})
	var skills []string
	for i := range l.Employees {
		for _, token := range l.Employees[i].SkillTokens() {
			if _, ok := seen[token]; !ok {
				seen[token] = struct{}{}
				skills = append(skills, token)
			}
		}
	}
	sort.Strings(skills)
	l.SkillsSummary = strings.Join(skills, ", ")
}

// ResourceRequest mediates one company requesting access to another company's
// resource listing. Approval is a pure status transition with no side effect
// on the listing or its members.
type ResourceRequest struct {
	gorm.Model

	ResourceListingID uint            `gorm:"not null;index;uniqueIndex:idx_resource_request_pair" json:"resource_listing_id"`
	ResourceListing   ResourceListing `json:"-"`

	RequestingCompanyID uint    `gorm:"not null;index;uniqueIndex:idx_resource_request_pair" json:"requesting_company_id"`
	RequestingCompany   Company `json:"-"`

	Status   string `gorm:"size:20;not null;default:'pending';uniqueIndex:idx_resource_request_pair" json:"status"`
	Message  string `gorm:"type:text" json:"message"`
	Response string `gorm:"type:text" json:"response"`

	RespondedAt *time.Time `json:"responded_at"`

	AdditionalParams JSONMap `gorm:"type:text" json:"additional_params"`
}
