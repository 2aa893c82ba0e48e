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

type ResourceRequestController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewResourceRequestController(db *gorm.DB, logger *logrus.Entry) *ResourceRequestController {
	return &ResourceRequestController{
		DB:     db,
		Logger: logger,
	}
}

type ResourceRequestCreateInput struct {
	ResourceListingID   uint           `json:"resource_listing_id" validate:"required"`
	RequestingCompanyID uint           `json:"requesting_company_id" validate:"required"`
	Message             string         `json:"message"`
	AdditionalParams    models.JSONMap `json:"additional_params"`
}

type resourceRequestView struct {
	models.ResourceRequest
	ListingTitle          string `json:"listing_title"`
	ListingCompanyName    string `json:"listing_company_name"`
	RequestingCompanyName string `json:"requesting_company_name"`
}

func (rc *ResourceRequestController) renderRequests(requests []models.ResourceRequest) ([]resourceRequestView, error) {
	views := make([]resourceRequestView, 0, len(requests))
	for i := range requests {
		view, err := rc.renderRequest(&requests[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (rc *ResourceRequestController) renderRequest(request *models.ResourceRequest) (*resourceRequestView, error) {
	var listing models.ResourceListing
	if err := rc.DB.First(&listing, request.ResourceListingID).Error; err != nil {
		return nil, err
	}
	var listingCompany models.Company
	if err := rc.DB.First(&listingCompany, listing.CompanyID).Error; err != nil {
		return nil, err
	}
	var requestingCompany models.Company
	if err := rc.DB.First(&requestingCompany, request.RequestingCompanyID).Error; err != nil {
		return nil, err
	}
	return &resourceRequestView{
		ResourceRequest:       *request,
		ListingTitle:          listing.Title,
		ListingCompanyName:    listingCompany.Name,
		RequestingCompanyName: requestingCompany.Name,
	}, nil
}

// GetResourceRequests returns requests the actor's companies sent or received.
func (rc *ResourceRequestController) GetResourceRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var requests []models.ResourceRequest
	if err := policy.ResourceRequests(rc.DB, user).Order("created_at DESC").Find(&requests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource requests", err)
	}

	views, err := rc.renderRequests(requests)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource requests", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetSentResourceRequests returns the requests raised by the actor's
// companies.
func (rc *ResourceRequestController) GetSentResourceRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var requests []models.ResourceRequest
	if err := policy.SentResourceRequests(rc.DB, user).Order("created_at DESC").Find(&requests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource requests", err)
	}

	views, err := rc.renderRequests(requests)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource requests", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetReceivedResourceRequests returns the requests raised against the actor's
// companies' listings.
func (rc *ResourceRequestController) GetReceivedResourceRequests(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var requests []models.ResourceRequest
	if err := policy.ReceivedResourceRequests(rc.DB, user).Order("created_at DESC").Find(&requests).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource requests", err)
	}

	views, err := rc.renderRequests(requests)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource requests", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

func (rc *ResourceRequestController) GetResourceRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var request models.ResourceRequest
	err := policy.ResourceRequests(rc.DB, user).
		Where("resource_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource request", err)
	}

	view, err := rc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// CreateResourceRequest files a pending request against another company's
// active listing. Companies cannot request their own listings, and the
// (listing, requesting company) pair admits only one pending request at a
// time; the composite unique index backstops the pre-check under races.
func (rc *ResourceRequestController) CreateResourceRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input ResourceRequestCreateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	owns, err := policy.ManagesCompany(rc.DB, user, input.RequestingCompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	var listing models.ResourceListing
	if err := rc.DB.Where("is_active = ?", true).First(&listing, input.ResourceListingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource listing")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	if listing.Status != models.ListingActive {
		return utils.ValidationResponse(c, utils.FieldError("resource_listing", "This listing is not accepting requests."))
	}
	if listing.CompanyID == input.RequestingCompanyID {
		return utils.ValidationResponse(c, utils.FieldError("resource_listing", "You cannot request your own listing."))
	}

	var count int64
	rc.DB.Model(&models.ResourceRequest{}).
		Where("resource_listing_id = ? AND requesting_company_id = ? AND status = ?",
			input.ResourceListingID, input.RequestingCompanyID, models.RequestPending).
		Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("resource_listing",
			"A pending request already exists for this listing from your company."))
	}

	request := models.ResourceRequest{
		ResourceListingID:   input.ResourceListingID,
		RequestingCompanyID: input.RequestingCompanyID,
		Status:              models.RequestPending,
		Message:             input.Message,
		AdditionalParams:    input.AdditionalParams,
	}

	if err := rc.DB.Create(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ValidationResponse(c, utils.FieldError("resource_listing",
				"A pending request already exists for this listing from your company."))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create resource request", err)
	}

	view, err := rc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource request", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(view))
}

// RespondResourceRequest approves or rejects a pending request. Only a manager
// of the listing's owning company may respond. Approval is a pure status
// transition: the listing and its member employees are untouched.
func (rc *ResourceRequestController) RespondResourceRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input RequestResponseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var request models.ResourceRequest
	err := policy.ResourceRequests(rc.DB, user).
		Where("resource_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource request", err)
	}

	var listing models.ResourceListing
	if err := rc.DB.First(&listing, request.ResourceListingID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	owns, err := policy.ManagesCompany(rc.DB, user, listing.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		var locked models.ResourceRequest
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
		request = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyResponded) {
			return utils.ValidationResponse(c, utils.FieldError("status", "This request has already been responded to."))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to respond to resource request", err)
	}

	rc.Logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"status":     request.Status,
	}).Info("resource request responded")

	view, err := rc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// CancelResourceRequest lets the requesting company withdraw a pending
// request.
func (rc *ResourceRequestController) CancelResourceRequest(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var request models.ResourceRequest
	err := policy.ResourceRequests(rc.DB, user).
		Where("resource_requests.id = ?", utils.ParseUint(c.Params("id"))).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource request")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource request", err)
	}

	owns, err := policy.ManagesCompany(rc.DB, user, request.RequestingCompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		var locked models.ResourceRequest
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
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to cancel resource request", err)
	}

	view, err := rc.renderRequest(&request)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch resource request", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}
