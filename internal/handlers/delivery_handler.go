package handlers

import (
	"log"

	"galeri/internal/middleware"
	"galeri/internal/models"
	"galeri/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DeliveryHandler handles HTTP requests for delivery options.
type DeliveryHandler struct {
	service *services.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(service *services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
	}
}

// RegisterRoutes registers the delivery option routes. The active list is
// public so the checkout page can render it; writes are admin only.
func (h *DeliveryHandler) RegisterRoutes(public, admin fiber.Router) {
	public.Get("/delivery-options", h.HandleGetActiveOptions)

	adminRoutes := admin.Group("/delivery-options", middleware.AdminRequired())
	adminRoutes.Post("/", h.HandleCreateOption)
	adminRoutes.Put("/:id", h.HandleUpdateOption)
}

// HandleGetActiveOptions lists the options available at checkout.
func (h *DeliveryHandler) HandleGetActiveOptions(c *fiber.Ctx) error {
	options, err := h.service.GetActiveOptions()
	if err != nil {
		return respondError(c, err, "Could not retrieve delivery options")
	}
	return c.JSON(options)
}

// HandleCreateOption creates a new delivery option.
func (h *DeliveryHandler) HandleCreateOption(c *fiber.Ctx) error {
	var option models.DeliveryOption
	if err := c.BodyParser(&option); err != nil {
		log.Printf("Error parsing delivery option body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.service.CreateOption(&option); err != nil {
		return respondError(c, err, "Could not create delivery option")
	}
	return c.Status(fiber.StatusCreated).JSON(option)
}

// HandleUpdateOption updates an existing delivery option.
func (h *DeliveryHandler) HandleUpdateOption(c *fiber.Ctx) error {
	var option models.DeliveryOption
	if err := c.BodyParser(&option); err != nil {
		log.Printf("Error parsing delivery option body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	option.ID = c.Params("id")
	if err := h.service.UpdateOption(&option); err != nil {
		return respondError(c, err, "Could not update delivery option")
	}
	return c.JSON(option)
}
