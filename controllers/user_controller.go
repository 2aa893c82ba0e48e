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

type UserController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewUserController(db *gorm.DB, logger *logrus.Entry) *UserController {
	return &UserController{
		DB:     db,
		Logger: logger,
	}
}

// GetUsers returns the users visible to the actor: every account for admins,
// only the actor's own account otherwise.
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var users []models.User
	if err := policy.Users(uc.DB, user).Order("created_at DESC").Find(&users).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch users", err)
	}

	return c.JSON(utils.SuccessResponse(users))
}

// GetUser returns a single user within the actor's visible set.
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var target models.User
	err := policy.Users(uc.DB, user).Where("id = ?", utils.ParseUint(c.Params("id"))).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFoundResponse(c, "User")
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch user", err)
	}

	return c.JSON(utils.SuccessResponse(target))
}
