package handlers

import (
	"galeri/internal/middleware"
	"galeri/internal/services"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler serves the poll-based notification feed.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

// RegisterRoutes registers the notification routes with the Fiber app.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notifRoutes := router.Group("/notifications")
	notifRoutes.Get("/", h.HandleList)
	notifRoutes.Post("/:id/read", h.HandleMarkRead)
	notifRoutes.Post("/read-all", h.HandleMarkAllRead)
}

// HandleList returns one page of the caller's feed, newest first. Supports
// page, per_page and unread_only query parameters.
func (h *NotificationHandler) HandleList(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)
	unreadOnly := c.QueryBool("unread_only", false)

	feed, err := h.service.ListForUser(middleware.UserID(c), middleware.IsAdmin(c), unreadOnly, page, perPage)
	if err != nil {
		return respondError(c, err, "Could not retrieve notifications")
	}
	return c.JSON(feed)
}

// HandleMarkRead marks one notification read.
func (h *NotificationHandler) HandleMarkRead(c *fiber.Ctx) error {
	n, err := h.service.MarkRead(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err, "Could not mark notification read")
	}
	return c.JSON(n)
}

// HandleMarkAllRead marks the caller's unread notifications read.
func (h *NotificationHandler) HandleMarkAllRead(c *fiber.Ctx) error {
	count, err := h.service.MarkAllRead(middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err, "Could not mark notifications read")
	}
	return c.JSON(fiber.Map{
		"message":     "Notifications marked read",
		"marked_read": count,
	})
}
