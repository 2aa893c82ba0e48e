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

type ListingController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewListingController(db *gorm.DB, logger *logrus.Entry) *ListingController {
	return &ListingController{
		DB:     db,
		Logger: logger,
	}
}

type ListingCreateInput struct {
	CompanyID        uint           `json:"company_id" validate:"required"`
	EmployeeIDs      []uint         `json:"employee_ids" validate:"required,min=1"`
	Title            string         `json:"title" validate:"required,max=255"`
	Description      string         `json:"description"`
	StartDate        time.Time      `json:"start_date" validate:"required"`
	ExpectedEndDate  *time.Time     `json:"expected_end_date"`
	Locations        string         `json:"locations"`
	AdditionalParams models.JSONMap `json:"additional_params"`
}

type ListingUpdateInput struct {
	EmployeeIDs      []uint         `json:"employee_ids"`
	Title            *string        `json:"title" validate:"omitempty,max=255"`
	Description      *string        `json:"description"`
	StartDate        *time.Time     `json:"start_date"`
	ExpectedEndDate  *time.Time     `json:"expected_end_date"`
	Locations        *string        `json:"locations"`
	AdditionalParams models.JSONMap `json:"additional_params"`
}

type ListingStatusInput struct {
	Status string `json:"status" validate:"required"`
}

type listingView struct {
	models.ResourceListing
	CompanyName string `json:"company_name"`
}

func (lc *ListingController) renderListings(listings []models.ResourceListing) ([]listingView, error) {
	views := make([]listingView, 0, len(listings))
	for i := range listings {
		view, err := lc.renderListing(&listings[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (lc *ListingController) renderListing(listing *models.ResourceListing) (*listingView, error) {
	var company models.Company
	if err := lc.DB.First(&company, listing.CompanyID).Error; err != nil {
		return nil, err
	}
	return &listingView{
		ResourceListing: *listing,
		CompanyName:     company.Name,
	}, nil
}

// loadMembers fetches and validates the member set for a listing owned by
// companyID: every employee must belong to that company and be available.
func (lc *ListingController) loadMembers(companyID uint, employeeIDs []uint) ([]models.Employee, utils.ValidationErrors) {
	var employees []models.Employee
	err := lc.DB.Where("id IN ? AND is_active = ?", employeeIDs, true).Find(&employees).Error
	if err != nil {
		return nil, utils.FieldError("employee_ids", "Failed to load employees.")
	}
	if len(employees) != len(employeeIDs) {
		return nil, utils.FieldError("employee_ids", "One or more employees were not found.")
	}
	for i := range employees {
		if employees[i].CompanyID != companyID {
			return nil, utils.FieldError("employee_ids", "All employees must belong to the listing company.")
		}
		if employees[i].Status != models.EmployeeAvailable {
			return nil, utils.FieldError("employee_ids", "All employees must be available to be listed.")
		}
	}
	return employees, nil
}

// GetListings returns the marketplace view of active listings. The exclude_own
// flag drops the actor's own companies' listings; include_inactive widens the
// set to non-active statuses (still subject to is_active).
func (lc *ListingController) GetListings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	opts := policy.ListingOptions{
		ExcludeOwn:      c.QueryBool("exclude_own"),
		IncludeInactive: c.QueryBool("include_inactive"),
	}

	var listings []models.ResourceListing
	err := policy.Listings(lc.DB, user, opts).
		Preload("Employees").
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listings", err)
	}

	views, err := lc.renderListings(listings)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listings", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

// GetMyListings returns the listings owned by the actor's companies,
// regardless of status.
func (lc *ListingController) GetMyListings(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var listings []models.ResourceListing
	err := policy.OwnListings(lc.DB, user).
		Preload("Employees").
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listings", err)
	}

	views, err := lc.renderListings(listings)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listings", err)
	}
	return c.JSON(utils.SuccessResponse(views))
}

func (lc *ListingController) GetListing(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	opts := policy.ListingOptions{IncludeInactive: true}

	var listing models.ResourceListing
	err := policy.Listings(lc.DB, user, opts).
		Preload("Employees").
		Where("resource_listings.id = ?", utils.ParseUint(c.Params("id"))).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource listing")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	view, err := lc.renderListing(&listing)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// CreateListing publishes a batch of available employees. The aggregates are
// derived from the member set inside the same transaction that assigns it.
func (lc *ListingController) CreateListing(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input ListingCreateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	owns, err := policy.ManagesCompany(lc.DB, user, input.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	employees, verrs := lc.loadMembers(input.CompanyID, input.EmployeeIDs)
	if verrs != nil {
		return utils.ValidationResponse(c, verrs)
	}

	listing := models.ResourceListing{
		CompanyID:        input.CompanyID,
		Title:            input.Title,
		Description:      input.Description,
		StartDate:        input.StartDate,
		ExpectedEndDate:  input.ExpectedEndDate,
		Locations:        input.Locations,
		Status:           models.ListingActive,
		IsActive:         true,
		AdditionalParams: input.AdditionalParams,
	}

	err = lc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&listing).Error; err != nil {
			return err
		}
		if err := tx.Model(&listing).Association("Employees").Append(employees); err != nil {
			return err
		}
		listing.Employees = employees
		listing.RecomputeAggregates()
		return tx.Model(&listing).Updates(map[string]interface{}{
			"total_resources": listing.TotalResources,
			"skills_summary":  listing.SkillsSummary,
		}).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create listing", err)
	}

	lc.Logger.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"company_id": listing.CompanyID,
		"resources":  listing.TotalResources,
	}).Info("resource listing created")

	view, err := lc.renderListing(&listing)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(view))
}

// UpdateListing edits listing fields. Replacing the member set re-derives the
// aggregates in the same transaction.
func (lc *ListingController) UpdateListing(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var listing models.ResourceListing
	err := policy.OwnListings(lc.DB, user).
		Where("resource_listings.id = ?", utils.ParseUint(c.Params("id"))).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource listing")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	owns, err := policy.ManagesCompany(lc.DB, user, listing.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	var input ListingUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var employees []models.Employee
	if input.EmployeeIDs != nil {
		if len(input.EmployeeIDs) == 0 {
			return utils.ValidationResponse(c, utils.FieldError("employee_ids", "A listing must contain at least one employee."))
		}
		var verrs utils.ValidationErrors
		employees, verrs = lc.loadMembers(listing.CompanyID, input.EmployeeIDs)
		if verrs != nil {
			return utils.ValidationResponse(c, verrs)
		}
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.StartDate != nil {
		listing.StartDate = *input.StartDate
	}
	if input.ExpectedEndDate != nil {
		listing.ExpectedEndDate = input.ExpectedEndDate
	}
	if input.Locations != nil {
		listing.Locations = *input.Locations
	}
	if input.AdditionalParams != nil {
		listing.AdditionalParams = input.AdditionalParams
	}

	err = lc.DB.Transaction(func(tx *gorm.DB) error {
		if input.EmployeeIDs != nil {
			if err := tx.Model(&listing).Association("Employees").Replace(employees); err != nil {
				return err
			}
			listing.Employees = employees
			listing.RecomputeAggregates()
		}
		return tx.Omit("Employees").Save(&listing).Error
	})
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update listing", err)
	}

	view, err := lc.renderListing(&listing)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// UpdateListingStatus flips a listing between active, inactive and closed.
func (lc *ListingController) UpdateListingStatus(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input ListingStatusInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}
	if !models.ValidListingStatus(input.Status) {
		return utils.ValidationResponse(c, utils.FieldError("status", "Invalid listing status."))
	}

	var listing models.ResourceListing
	err := policy.OwnListings(lc.DB, user).
		Where("resource_listings.id = ?", utils.ParseUint(c.Params("id"))).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource listing")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	owns, err := policy.ManagesCompany(lc.DB, user, listing.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	listing.Status = input.Status
	if err := lc.DB.Save(&listing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update listing status", err)
	}

	view, err := lc.renderListing(&listing)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}
	return c.JSON(utils.SuccessResponse(view))
}

// DeleteListing soft-deletes a listing the actor's company owns.
func (lc *ListingController) DeleteListing(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var listing models.ResourceListing
	err := policy.OwnListings(lc.DB, user).
		Where("resource_listings.id = ?", utils.ParseUint(c.Params("id"))).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Resource listing")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	owns, err := policy.ManagesCompany(lc.DB, user, listing.CompanyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check permissions", err)
	}
	if !owns {
		return utils.PermissionDeniedResponse(c)
	}

	if err := lc.DB.Delete(&listing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete listing", err)
	}

	lc.Logger.WithField("listing_id", listing.ID).Info("resource listing deleted")
	return c.SendStatus(fiber.StatusNoContent)
}
