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

type AdminRequestController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewAdminRequestController(db *gorm.DB, logger *logrus.Entry) *AdminRequestController {
	return &AdminRequestController{
		DB:     db,
		Logger: logger,
	}
}

type AdminRequestResponseInput struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected"`
	ResponseMessage string `json:"response_message"`
}

// adminRequestView embeds the denormalized names clients render alongside the
// raw request record.
type adminRequestView struct {
	models.AdminAccessRequest
	UserEmail   string `json:"user_email"`
	UserName    string `json:"user_name"`
	CompanyName string `json:"company_name"`
}

func (ac *AdminRequestController) renderRequests(requests []models.AdminAccessRequest) ([]adminRequestView, error) {
	views := make([]adminRequestView, 0, len(requests))
	for i := range requests {
		view, err := ac.renderRequest(&requests[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (ac *AdminRequestController) renderRequest(request *models.AdminAccessRequest) (*adminRequestView, error) {
	var user models.User
	if err := ac.DB.First(&user, request.UserID).Error; err != nil {
		return nil, err
	}
	var company models.Company
	if err := ac.DB.First(&company, request.CompanyID).Error; err != nil {
		return nil, err
	}
	return &adminRequestView{
		AdminAccessRequest: *request,
		UserEmail:          user.Email,
		UserName:           user.FullName(),
		CompanyName:        company.Name,
	}, nil
}

// GetAdminRequests returns the admin access requests visible to the actor:
// company users see requests raised against their companies, admins see the
// requests they raised.
func (ac *AdminRequestController) GetAdminRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var requests []models.AdminAccessRequest
	if err := policy.AdminRequests(ac.DB, user).Order("created_at DESC").Find(&requests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin requests", err)
	}

	views, err := ac.renderRequests(requests)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin requests", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetPendingAdminRequests narrows the visible set to pending requests.
func (ac *AdminRequestController) GetPendingAdminRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var requests []models.AdminAccessRequest
	err := policy.AdminRequests(ac.DB, user).
		Where("status = ?", models.AdminRequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin requests", err)
	}

	views, err := ac.renderRequests(requests)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin requests", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetAdminRequest returns a single request within the actor's visible set.
func (ac *AdminRequestController) GetAdminRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var request models.AdminAccessRequest
	err := policy.AdminRequests(ac.DB, user).
		Where("admin_access_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Admin request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin request", err)
	}

	view, err := ac.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// RespondAdminRequest approves or rejects a pending admin access request.
// Only the owning user of the target company may respond, and only once. On
// approval the requesting user joins the company's approved-admin set and the
// account is activated. On rejection the account stays inactive.
func (ac *AdminRequestController) RespondAdminRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input AdminRequestResponseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var request models.AdminAccessRequest
	err := policy.AdminRequests(ac.DB, user).
		Where("admin_access_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Admin request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin request", err)
	}

	owns, err := policy.ManagesCompany(ac.DB, user, request.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		var locked models.AdminAccessRequest
		if err := utils.ForUpdate(tx).First(&locked, request.ID).Error; err != nil {
			return err
		}
		if locked.Status != models.AdminRequestPending {
			return errAlreadyResponded
		}

		now := time.Now()
		locked.Status = input.Status
		locked.ResponseMessage = input.ResponseMessage
		locked.RespondedAt = &now
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}

		if locked.Status == models.AdminRequestApproved {
			var requester models.User
			if err := tx.First(&requester, locked.UserID).Error; err != nil {
				return err
			}
			var company models.Company
			if err := tx.First(&company, locked.CompanyID).Error; err != nil {
				return err
			}
			if err := tx.Model(&company).Association("ApprovedAdmins").Append(&requester); err != nil {
				return err
			}
			requester.IsActive = true
			if err := tx.Save(&requester).Error; err != nil {
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
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to respond to admin request", err)
	}

	ac.Logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"status":     request.Status,
	}).Info("admin request responded")

	view, err := ac.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch admin request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}
