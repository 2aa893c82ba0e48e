package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"benchlist/models"
	"benchlist/policy"
	"benchlist/utils"
)

type CompanyController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewCompanyController(db *gorm.DB, logger *logrus.Entry) *CompanyController {
	return &CompanyController{
		DB:     db,
		Logger: logger,
	}
}

// GetCompanies returns the companies visible to the actor.
func (cc *CompanyController) GetCompanies(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var companies []models.Company
	if err := policy.Companies(cc.DB, user).Order("created_at DESC").Find(&companies).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch companies", err)
	}

	return c.JSON(utils.SuccessResponse(companies))
}

// GetCompany returns a single company within the actor's visible set.
func (cc *CompanyController) GetCompany(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var company models.Company
	err := policy.Companies(cc.DB, user).
		Preload("ApprovedAdmins").
		Where("companies.id = ?", utils.ParseUint(c.Params("id"))).
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Company")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch company", err)
	}

	return c.JSON(utils.SuccessResponse(company))
}

// CreateCompany registers an additional company owned by the current user.
func (cc *CompanyController) CreateCompany(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name        string `json:"name" validate:"required,max=255"`
		Email       string `json:"email" validate:"required,email"`
		Phone       string `json:"phone" validate:"omitempty,max=20"`
		Address     string `json:"address"`
		Website     string `json:"website" validate:"omitempty,url"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var count int64
	cc.DB.Model(&models.Company{}).Where("name = ?", input.Name).Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("name", "A company with this name already exists."))
	}
	cc.DB.Model(&models.Company{}).Where("email = ?", input.Email).Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("email", "A company with this email already exists."))
	}

	company := models.Company{
		Name:        input.Name,
		Email:       input.Email,
		Phone:       input.Phone,
		Address:     input.Address,
		Website:     input.Website,
		Description: input.Description,
		AdminUserID: user.ID,
		IsActive:    true,
	}

	if err := cc.DB.Create(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ValidationResponse(c, utils.FieldError("name", "A company with this name or email already exists."))
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create company", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(company))
}

// UpdateCompany updates company details. Only the owning user may mutate.
func (cc *CompanyController) UpdateCompany(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Name        string `json:"name" validate:"omitempty,max=255"`
		Email       string `json:"email" validate:"omitempty,email"`
		Phone       string `json:"phone" validate:"omitempty,max=20"`
		Address     string `json:"address"`
		Website     string `json:"website" validate:"omitempty,url"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if errs := utils.ValidateStruct(input); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var company models.Company
	err := policy.Companies(cc.DB, user).Where("companies.id = ?", utils.ParseUint(c.Params("id"))).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Company")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch company", err)
	}

	if company.AdminUserID != user.ID {
		return utils.PermissionDeniedResponse(c)
	}

	if input.Name != "" && input.Name != company.Name {
		var count int64
		cc.DB.Model(&models.Company{}).Where("name = ?", input.Name).Count(&count)
		if count > 0 {
			return utils.ValidationResponse(c, utils.FieldError("name", "A company with this name already exists."))
		}
		company.Name = input.Name
	}
	if input.Email != "" && input.Email != company.Email {
		var count int64
		cc.DB.Model(&models.Company{}).Where("email = ?", input.Email).Count(&count)
		if count > 0 {
			return utils.ValidationResponse(c, utils.FieldError("email", "A company with this email already exists."))
		}
		company.Email = input.Email
	}
	if input.Phone != "" {
		company.Phone = input.Phone
	}
	if input.Address != "" {
		company.Address = input.Address
	}
	if input.Website != "" {
		company.Website = input.Website
	}
	if input.Description != "" {
		company.Description = input.Description
	}

	if err := cc.DB.Save(&company).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update company", err)
	}

	return c.JSON(utils.SuccessResponse(company))
}

// DeleteCompany removes a company. Only the owning user may delete.
func (cc *CompanyController) DeleteCompany(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var company models.Company
	err := policy.Companies(cc.DB, user).Where("companies.id = ?", utils.ParseUint(c.Params("id"))).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "Company")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch company", err)
	}

	if company.AdminUserID != user.ID {
		return utils.PermissionDeniedResponse(c)
	}

	if err := cc.DB.Delete(&company).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete company", err)
	}

	cc.Logger.WithField("company_id", company.ID).Info("company deleted")
	return c.SendStatus(fiber.StatusNoContent)
}
