package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Employee statuses. Only an approved bench request moves an employee to
// allocated; rejection and cancellation leave the status untouched.
const (
	EmployeeAvailable = "available"
	EmployeeRequested = "requested"
	EmployeeAllocated = "allocated"
)

// Experience levels accepted for employees.
const (
	ExperienceJunior = "junior"
	ExperienceMid    = "mid"
	ExperienceSenior = "senior"
	ExperienceLead   = "lead"
)

// ValidEmployeeStatus reports whether status is a known employee status.
func ValidEmployeeStatus(status string) bool {
	switch status {
	case EmployeeAvailable, EmployeeRequested, EmployeeAllocated:
		return true
	}
	return false
}

// ValidExperienceLevel reports whether level is a known experience level.
func ValidExperienceLevel(level string) bool {
	switch level {
	case ExperienceJunior, ExperienceMid, ExperienceSenior, ExperienceLead:
		return true
	}
	return false
}

// Employee represents a bench employee on a company's roster
type Employee struct {
	gorm.Model

	// Personal information
	FirstName string `gorm:"size:150;not null" json:"first_name"`
	LastName  string `gorm:"size:150;not null" json:"last_name"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string `gorm:"size:20" json:"phone"`

	// Professional information
	JobTitle        string `gorm:"size:255;not null" json:"job_title"`
	ExperienceYears int    `gorm:"not null" json:"experience_years"`
	ExperienceLevel string `gorm:"size:20;not null;default:'mid'" json:"experience_level"`
	Skills          string `gorm:"type:text" json:"skills"` // comma-separated

	// Employment details
	CompanyID uint    `gorm:"not null;index" json:"company_id"`
	Company   Company `json:"-"`
	Status    string  `gorm:"size:20;not null;default:'available'" json:"status"`

	BenchStartDate          time.Time  `gorm:"not null" json:"bench_start_date"`
	ExpectedAvailabilityEnd *time.Time `json:"expected_availability_end"`

	Notes    string `gorm:"type:text" json:"notes"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Relations
	Requests []BenchRequest `gorm:"foreignKey:EmployeeID" json:"requests,omitempty"`
}

// FullName returns the first and last name with a space in between.
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// SkillTokens splits the comma-separated skills field into trimmed tokens.
func (e *Employee) SkillTokens() []string {
	if e.Skills == "" {
		return nil
	}
	var tokens []string
	for _, s := range strings.Split(e.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// Workflow request statuses shared by bench and resource requests.
const (
	RequestPending   = "pending"
	RequestApproved  = "approved"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

// ValidRequestResponse reports whether status is an accepted terminal state
// for a respond operation. Cancellation goes through its own endpoint.
func ValidRequestResponse(status string) bool {
	return status == RequestApproved || status == RequestRejected
}

// BenchRequest mediates one company requesting a specific employee from
// another. The (employee, requesting company, status) tuple is unique at the
// storage level so racing duplicate-pending creates fail at commit.
type BenchRequest struct {
	gorm.Model

	EmployeeID uint     `gorm:"not null;index;uniqueIndex:idx_bench_request_pair" json:"employee_id"`
	Employee   Employee `json:"-"`

	RequestingCompanyID uint    `gorm:"not null;index;uniqueIndex:idx_bench_request_pair" json:"requesting_company_id"`
	RequestingCompany   Company `json:"-"`

	Status   string `gorm:"size:20;not null;default:'pending';uniqueIndex:idx_bench_request_pair" json:"status"`
	Message  string `gorm:"type:text" json:"message"`
	Response string `gorm:"type:text" json:"response"`

	RespondedAt *time.Time `json:"responded_at"`
}
