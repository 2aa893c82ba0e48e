package controller

import (
	"errors"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"benchlist/config"
	"benchlist/models"
	"benchlist/utils"
)

type CompanyUserRegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`

	CompanyName        string `json:"company_name" validate:"required,max=255"`
	CompanyEmail       string `json:"company_email" validate:"required,email"`
	CompanyPhone       string `json:"company_phone" validate:"omitempty,max=20"`
	CompanyAddress     string `json:"company_address"`
	CompanyWebsite     string `json:"company_website" validate:"omitempty,url"`
	CompanyDescription string `json:"company_description"`
}

type AdminRegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Password2 string `json:"password2" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`

	CompanyID uint   `json:"company_id" validate:"required"`
	Message   string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=8"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// RegisterCompanyUser creates a company-owner user together with their
// company in one atomic call.
func RegisterCompanyUser(c *fiber.Ctx) error {
	var req CompanyUserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationResponse(c, errs)
	}
	if req.Password != req.Password2 {
		return utils.ValidationResponse(c, utils.FieldError("password", "Password fields didn't match."))
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return utils.ValidationResponse(c, utils.FieldError("email", "email must be a valid email"))
	}

	// Uniqueness checks
	var count int64
	config.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("email", "A user with this email already exists."))
	}
	config.DB.Model(&models.Company{}).Where("name = ?", req.CompanyName).Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("company_name", "A company with this name already exists."))
	}
	config.DB.Model(&models.Company{}).Where("email = ?", req.CompanyEmail).Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("company_email", "A company with this email already exists."))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to hash password", err)
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleCompanyUser,
		IsActive:     true,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.FieldError("email", "A user with this email already exists.")
			}
			return err
		}
		company := models.Company{
			Name:        req.CompanyName,
			Email:       req.CompanyEmail,
			Phone:       req.CompanyPhone,
			Address:     req.CompanyAddress,
			Website:     req.CompanyWebsite,
			Description: req.CompanyDescription,
			AdminUserID: user.ID,
			IsActive:    true,
		}
		if err := tx.Create(&company).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.FieldError("company_name", "A company with this name or email already exists.")
			}
			return err
		}
		return nil
	})
	if err != nil {
		var verrs utils.ValidationErrors
		if errors.As(err, &verrs) {
			return utils.ValidationResponse(c, verrs)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"message":    "Registration successful! You can now login.",
	})
}

// RegisterAdmin creates an admin-role user in the inactive state and raises a
// pending access request against the chosen company in the same transaction.
// The account stays inactive until the company owner approves the request.
func RegisterAdmin(c *fiber.Ctx) error {
	var req AdminRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationResponse(c, errs)
	}
	if req.Password != req.Password2 {
		return utils.ValidationResponse(c, utils.FieldError("password", "Password fields didn't match."))
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return utils.ValidationResponse(c, utils.FieldError("email", "email must be a valid email"))
	}

	var count int64
	config.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		return utils.ValidationResponse(c, utils.FieldError("email", "A user with this email already exists."))
	}

	var company models.Company
	if err := config.DB.First(&company, req.CompanyID).Error; err != nil {
		return utils.ValidationResponse(c, utils.FieldError("company_id", "Company not found."))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to hash password", err)
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleAdmin,
		IsActive:     false, // inactive until approved
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.FieldError("email", "A user with this email already exists.")
			}
			return err
		}
		request := models.AdminAccessRequest{
			UserID:    user.ID,
			CompanyID: company.ID,
			Status:    models.AdminRequestPending,
			Message:   req.Message,
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		var verrs utils.ValidationErrors
		if errors.As(err, &verrs) {
			return utils.ValidationResponse(c, verrs)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create user", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"is_active":  user.IsActive,
		"message":    "Registration request submitted! Please wait for company approval.",
	})
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationResponse(c, errs)
	}

	var user models.User
	if err := config.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", nil)
	}

	if !user.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", nil)
	}

	accessToken, refreshToken, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate tokens", err)
	}

	return c.JSON(AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         &user,
	})
}

func RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	accessToken, refreshToken, err := utils.RefreshTokens(config.DB, req.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, err.Error(), nil)
	}

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	if err := config.DB.
		Preload("ManagedCompanies").
		Preload("AccessibleCompanies").
		First(user, user.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load user", err)
	}

	return c.JSON(user)
}

func ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if errs := utils.ValidateStruct(req); errs != nil {
		return utils.ValidationResponse(c, errs)
	}
	if req.NewPassword != req.NewPassword2 {
		return utils.ValidationResponse(c, utils.FieldError("new_password", "Password fields didn't match."))
	}

	user := c.Locals("user").(*models.User)

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return utils.ValidationResponse(c, utils.FieldError("old_password", "Wrong password."))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to hash password", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := config.DB.Save(user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update password", err)
	}

	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}
