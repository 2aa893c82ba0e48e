package utils

import (
	"fmt"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrorResponse creates a standardized error response. Server-side failures
// are reported to Sentry when it is configured.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	if status >= fiber.StatusInternalServerError {
		if err != nil {
			sentry.CaptureException(fmt.Errorf("%s: %w", message, err))
		} else {
			sentry.CaptureMessage(message)
		}
	}
	return c.Status(status).JSON(response)
}

// ValidationResponse surfaces a field-keyed validation error map.
func ValidationResponse(c *fiber.Ctx, errs ValidationErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"errors":  errs,
	})
}

// PermissionDeniedResponse is the terminal denial for authenticated but
// unauthorized actors. It carries no detail about why.
func PermissionDeniedResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"error":   "You do not have permission to perform this action",
	})
}

// NotFoundResponse is returned both for missing records and for records the
// actor is not entitled to see, so existence never leaks across tenants.
func NotFoundResponse(c *fiber.Ctx, entity string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   entity + " not found",
	})
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}

// ForUpdate adds a row-level lock to the query on engines that support it.
// SQLite serializes writers on its own, so the clause is skipped there.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}
