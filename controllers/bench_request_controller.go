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

type BenchRequestController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewBenchRequestController(db *gorm.DB, logger *logrus.Entry) *BenchRequestController {
	return &BenchRequestController{
		DB:     db,
		Logger: logger,
	}
}

type BenchRequestCreateInput struct {
	EmployeeID          uint   `json:"employee_id" validate:"required"`
	RequestingCompanyID uint   `json:"requesting_company_id" validate:"required"`
	Message             string `json:"message"`
}

type RequestResponseInput struct {
	Status   string `json:"status" validate:"required,oneof=approved rejected"`
	Response string `json:"response"`
}

// benchRequestView embeds the denormalized names clients render alongside the
// raw request record.
type benchRequestView struct {
	models.BenchRequest
	EmployeeName          string `json:"employee_name"`
	EmployeeJobTitle      string `json:"employee_job_title"`
	EmployeeCompanyName   string `json:"employee_company_name"`
	RequestingCompanyName string `json:"requesting_company_name"`
}

func (bc *BenchRequestController) renderRequests(requests []models.BenchRequest) ([]benchRequestView, error) {
	views := make([]benchRequestView, 0, len(requests))
	for i := range requests {
		view, err := bc.renderRequest(&requests[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (bc *BenchRequestController) renderRequest(request *models.BenchRequest) (*benchRequestView, error) {
	var employee models.Employee
	if err := bc.DB.First(&employee, request.EmployeeID).Error; err != nil {
		return nil, err
	}
	var employeeCompany models.Company
	if err := bc.DB.First(&employeeCompany, employee.CompanyID).Error; err != nil {
		return nil, err
	}
	var requestingCompany models.Company
	if err := bc.DB.First(&requestingCompany, request.RequestingCompanyID).Error; err != nil {
		return nil, err
	}
	return &benchRequestView{
		BenchRequest:          *request,
		EmployeeName:          employee.FullName(),
		EmployeeJobTitle:      employee.JobTitle,
		EmployeeCompanyName:   employeeCompany.Name,
		RequestingCompanyName: requestingCompany.Name,
	}, nil
}

// GetBenchRequests returns the bench requests the actor's companies sent or
// received.
func (bc *BenchRequestController) GetBenchRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var requests []models.BenchRequest
	if err := policy.BenchRequests(bc.DB, user).Order("created_at DESC").Find(&requests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench requests", err)
	}

	views, err := bc.renderRequests(requests)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench requests", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetPendingBenchRequests narrows the visible set to pending requests.
func (bc *BenchRequestController) GetPendingBenchRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var requests []models.BenchRequest
	err := policy.BenchRequests(bc.DB, user).
		Where("status = ?", models.RequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench requests", err)
	}

	views, err := bc.renderRequests(requests)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench requests", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetBenchRequest returns a single request within the actor's visible set.
func (bc *BenchRequestController) GetBenchRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var request models.BenchRequest
	err := policy.BenchRequests(bc.DB, user).
		Where("bench_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Bench request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench request", err)
	}

	view, err := bc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// CreateBenchRequest files a pending request for another company's employee.
// The target employee must be available and the (employee, requesting
// company) pair must not already have a pending request; the composite unique
// index makes the second check hold even when two creators race.
func (bc *BenchRequestController) CreateBenchRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input BenchRequestCreateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	owns, err := policy.ManagesCompany(bc.DB, user, input.RequestingCompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	var employee models.Employee
	if err := bc.DB.Where("is_active = ?", true).First(&employee, input.EmployeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Employee")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}

	if employee.Status != models.EmployeeAvailable {
		return utils.ValidationResponse(c, utils.FieldError("employee", "Employee is not available for requests."))
	}

	var count int64
	bc.DB.Model(&models.BenchRequest{}).
		Where("employee_id = ? AND requesting_company_id = ? AND status = ?",
			input.EmployeeID, input.RequestingCompanyID, models.RequestPending).
		Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("employee",
			"A pending request already exists for this employee from your company."))
	}

	request := models.BenchRequest{
		EmployeeID:          input.EmployeeID,
		RequestingCompanyID: input.RequestingCompanyID,
		Status:              models.RequestPending,
		Message:             input.Message,
	}

	if err := bc.DB.Create(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ValidationResponse(c, utils.FieldError("employee",
				"A pending request already exists for this employee from your company."))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create bench request", err)
	}

	view, err := bc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench request", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(view))
}

// RespondBenchRequest approves or rejects a pending bench request. Only a
// manager of the employee's owning company may respond, and only once.
// Approval allocates the employee; sibling pending requests for the same
// employee are left untouched.
func (bc *BenchRequestController) RespondBenchRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input RequestResponseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var request models.BenchRequest
	err := policy.BenchRequests(bc.DB, user).
		Where("bench_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Bench request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench request", err)
	}

	var employee models.Employee
	if err := bc.DB.First(&employee, request.EmployeeID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch employee", err)
	}

	owns, err := policy.ManagesCompany(bc.DB, user, employee.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		var locked models.BenchRequest
		if err := utils.ForUpdate(tx).First(&locked, request.ID).Error; err != nil {
			return err
		}
		if locked.Status != models.RequestPending {
			return errAlreadyResponded
		}

		now := time.Now()
		locked.Status = input.Status
		locked.Response = input.Response
		locked.RespondedAt = &now
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}

		if locked.Status == models.RequestApproved {
			var lockedEmployee models.Employee
			if err := utils.ForUpdate(tx).First(&lockedEmployee, locked.EmployeeID).Error; err != nil {
				return err
			}
			lockedEmployee.Status = models.EmployeeAllocated
			if err := tx.Save(&lockedEmployee).Error; err != nil {
				return err
			}
		}

		request = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyResponded) {
			return utils.ValidationResponse(c, utils.FieldError("status", "This request has already been responded to."))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to respond to bench request", err)
	}

	bc.Logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"status":     request.Status,
	}).Info("bench request responded")

	view, err := bc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// CancelBenchRequest lets the requesting company withdraw a pending request.
// Cancellation never changes the employee's status.
func (bc *BenchRequestController) CancelBenchRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var request models.BenchRequest
	err := policy.BenchRequests(bc.DB, user).
		Where("bench_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Bench request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench request", err)
	}

	owns, err := policy.ManagesCompany(bc.DB, user, request.RequestingCompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		var locked models.BenchRequest
		if err := utils.ForUpdate(tx).First(&locked, request.ID).Error; err != nil {
			return err
		}
		if locked.Status != models.RequestPending {
			return errNotPending
		}
		locked.Status = models.RequestCancelled
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}
		request = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, errNotPending) {
			return utils.ValidationResponse(c, utils.FieldError("status", "Only pending requests can be cancelled."))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel bench request", err)
	}

	view, err := bc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch bench request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}
