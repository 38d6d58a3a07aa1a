package handlers

import (
	"errors"
	"fmt"
	"log"

	"galeri/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// validationMessages flattens validator errors into a field -> message map,
// or nil when the struct passed.
func validationMessages(err error) map[string]string {
	if err == nil {
		return nil
	}
	messages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			messages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	} else {
		messages["body"] = err.Error()
	}
	return messages
}

// respondError maps service errors onto HTTP statuses: validation problems
// are the client's fault, conflicting transitions are conflicts, a payment
// provider outage is a bad gateway, everything unclassified is a 500.
func respondError(c *fiber.Ctx, err error, message string) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"field":   verr.Field,
			"error":   verr.Reason,
		})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, models.ErrIllegalTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, models.ErrGatewayUnavailable):
		log.Printf("Gateway error: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Payment service is unavailable, please try again",
		})
	default:
		log.Printf("Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	}
}
