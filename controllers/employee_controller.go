package controller

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"benchlist/models"
	"benchlist/policy"
	"benchlist/utils"
)

type EmployeeController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewEmployeeController(db *gorm.DB, logger *logrus.Entry) *EmployeeController {
	return &EmployeeController{
		DB:     db,
		Logger: logger,
	}
}

type EmployeeInput struct {
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`

	JobTitle        string `json:"job_title" validate:"required,max=255"`
	ExperienceYears int    `json:"experience_years" validate:"gte=0"`
	ExperienceLevel string `json:"experience_level" validate:"omitempty,oneof=junior mid senior lead"`
	Skills          string `json:"skills"`

	CompanyID uint   `json:"company_id" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=available requested allocated"`

	BenchStartDate          time.Time  `json:"bench_start_date" validate:"required"`
	ExpectedAvailabilityEnd *time.Time `json:"expected_availability_end"`

	Notes string `json:"notes"`
}

// employeeView embeds denormalized company data for list and detail renders.
type employeeView struct {
	models.Employee
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

func (ec *EmployeeController) renderEmployees(employees []models.Employee) ([]employeeView, error) {
	views := make([]employeeView, 0, len(employees))
	for i := range employees {
		view, err := ec.renderEmployee(&employees[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (ec *EmployeeController) renderEmployee(employee *models.Employee) (*employeeView, error) {
	var company models.Company
	if err := ec.DB.First(&company, employee.CompanyID).Error; err != nil {
		return nil, err
	}
	return &employeeView{
		Employee:    *employee,
		FullName:    employee.FullName(),
		CompanyName: company.Name,
	}, nil
}

// GetEmployees returns the employees visible to the actor, with optional
// status, experience level and free-text filters.
func (ec *EmployeeController) GetEmployees(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := policy.Employees(ec.DB, user)

	if status := c.Query("status"); status != "" {
		query = query.Where("employees.status = ?", status)
	}
	if level := c.Query("experience_level"); level != "" {
		query = query.Where("employees.experience_level = ?", level)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"employees.first_name LIKE ? OR employees.last_name LIKE ? OR employees.job_title LIKE ? OR employees.skills LIKE ?",
			like, like, like, like,
		)
	}

	var employees []models.Employee
	if err := query.Order("created_at DESC").Find(&employees).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employees", err)
	}

	views, err := ec.renderEmployees(employees)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employees", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetAvailableEmployees narrows the visible set to available bench employees.
func (ec *EmployeeController) GetAvailableEmployees(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var employees []models.Employee
	err := policy.Employees(ec.DB, user).
		Where("employees.status = ?", models.EmployeeAvailable).
		Order("created_at DESC").
		Find(&employees).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employees", err)
	}

	views, err := ec.renderEmployees(employees)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employees", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetEmployee returns a single employee within the actor's visible set.
func (ec *EmployeeController) GetEmployee(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var employee models.Employee
	err := policy.Employees(ec.DB, user).
		Where("employees.id = ?", utils.ParseUint(c.Params("id"))).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Employee")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}

	view, err := ec.renderEmployee(&employee)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// CreateEmployee adds an employee to a company roster. Only the owning user
// of the declared company may create; employee emails are unique system-wide.
func (ec *EmployeeController) CreateEmployee(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input EmployeeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	owns, err := policy.ManagesCompany(ec.DB, user, input.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	var count int64
	ec.DB.Model(&models.Employee{}).Where("email = ?", input.Email).Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("email", "An employee with this email already exists."))
	}

	employee := models.Employee{
		FirstName:               input.FirstName,
		LastName:                input.LastName,
		Email:                   input.Email,
		Phone:                   input.Phone,
		JobTitle:                input.JobTitle,
		ExperienceYears:         input.ExperienceYears,
		ExperienceLevel:         input.ExperienceLevel,
		Skills:                  input.Skills,
		CompanyID:               input.CompanyID,
		Status:                  input.Status,
		BenchStartDate:          input.BenchStartDate,
		ExpectedAvailabilityEnd: input.ExpectedAvailabilityEnd,
		Notes:                   input.Notes,
		IsActive:                true,
	}
	if employee.ExperienceLevel == "" {
		employee.ExperienceLevel = models.ExperienceMid
	}
	if employee.Status == "" {
		employee.Status = models.EmployeeAvailable
	}

	// The unique index also rejects emails held by soft-deleted rows, which
	// the pre-check above cannot see.
	if err := ec.DB.Create(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ValidationResponse(c, utils.FieldError("email", "An employee with this email already exists."))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create employee", err)
	}

	view, err := ec.renderEmployee(&employee)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(view))
}

// UpdateEmployee updates employee details. Only the owning company's user may
// mutate the roster.
func (ec *EmployeeController) UpdateEmployee(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		FirstName string `json:"first_name" validate:"omitempty,max=150"`
		LastName  string `json:"last_name" validate:"omitempty,max=150"`
		Email     string `json:"email" validate:"omitempty,email"`
		Phone     string `json:"phone" validate:"omitempty,max=20"`

		JobTitle        string  `json:"job_title" validate:"omitempty,max=255"`
		ExperienceYears *int    `json:"experience_years" validate:"omitempty"`
		ExperienceLevel string  `json:"experience_level" validate:"omitempty,oneof=junior mid senior lead"`
		Skills          *string `json:"skills"`

		Status string `json:"status" validate:"omitempty,oneof=available requested allocated"`

		BenchStartDate          *time.Time `json:"bench_start_date"`
		ExpectedAvailabilityEnd *time.Time `json:"expected_availability_end"`

		Notes *string `json:"notes"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var employee models.Employee
	err := policy.Employees(ec.DB, user).
		Where("employees.id = ?", utils.ParseUint(c.Params("id"))).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Employee")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}

	owns, err := policy.ManagesCompany(ec.DB, user, employee.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	if input.Email != "" && input.Email != employee.Email {
		var count int64
		ec.DB.Model(&models.Employee{}).Where("email = ?", input.Email).Count(&count)
		if count > 0 {
			return utils.ValidationResponse(c, utils.FieldError("email", "An employee with this email already exists."))
		}
		employee.Email = input.Email
	}
	if input.FirstName != "" {
		employee.FirstName = input.FirstName
	}
	if input.LastName != "" {
		employee.LastName = input.LastName
	}
	if input.Phone != "" {
		employee.Phone = input.Phone
	}
	if input.JobTitle != "" {
		employee.JobTitle = input.JobTitle
	}
	if input.ExperienceYears != nil {
		employee.ExperienceYears = *input.ExperienceYears
	}
	if input.ExperienceLevel != "" {
		employee.ExperienceLevel = input.ExperienceLevel
	}
	if input.Skills != nil {
		employee.Skills = *input.Skills
	}
	if input.Status != "" {
		employee.Status = input.Status
	}
	if input.BenchStartDate != nil {
		employee.BenchStartDate = *input.BenchStartDate
	}
	if input.ExpectedAvailabilityEnd != nil {
		employee.ExpectedAvailabilityEnd = input.ExpectedAvailabilityEnd
	}
	if input.Notes != nil {
		employee.Notes = *input.Notes
	}

	if err := ec.DB.Save(&employee).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update employee", err)
	}

	view, err := ec.renderEmployee(&employee)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// DeleteEmployee removes an employee from the roster.
func (ec *EmployeeController) DeleteEmployee(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var employee models.Employee
	err := policy.Employees(ec.DB, user).
		Where("employees.id = ?", utils.ParseUint(c.Params("id"))).
		First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Employee")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}

	owns, err := policy.ManagesCompany(ec.DB, user, employee.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	if err := ec.DB.Delete(&employee).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete employee", err)
	}

	ec.Logger.WithField("employee_id", employee.ID).Info("employee deleted")
	return c.SendStatus(fiber.StatusNoContent)
}
