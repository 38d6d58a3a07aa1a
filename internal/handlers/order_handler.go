package handlers

import (
	"log"

	"galeri/internal/middleware"
	"galeri/internal/models"
	"galeri/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders and checkout.
type OrderHandler struct {
	orderService    *services.OrderService
	checkoutService *services.CheckoutService
	validate        *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, checkoutService *services.CheckoutService) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		checkoutService: checkoutService,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. All order
// routes require authentication; the status patch is admin only.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/checkout", h.HandleCheckout)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", middleware.AdminRequired(), h.HandleUpdateOrderStatus)
}

// CheckoutBody is the request body for checkout.
type CheckoutBody struct {
	Items            []models.CartItem `json:"items" validate:"required,min=1,dive"`
	DeliveryOptionID string            `json:"delivery_option_id" validate:"required"`
	ShippingAddress  string            `json:"shipping_address"`
	PayerPhone       string            `json:"payer_phone" validate:"required"`
}

// HandleCheckout places an order from the caller's cart and triggers the
// payment prompt on their phone.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var body CheckoutBody
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	result, err := h.checkoutService.Checkout(c.Context(), services.CheckoutRequest{
		UserID:           middleware.UserID(c),
		Items:            body.Items,
		DeliveryOptionID: body.DeliveryOptionID,
		ShippingAddress:  body.ShippingAddress,
		PayerPhone:       body.PayerPhone,
	})
	if err != nil {
		return respondError(c, err, "Checkout failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order placed, check your phone to authorize payment",
		"data":    result,
	})
}

// HandleGetOrders lists the caller's orders; admins get every order.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	var (
		orders []models.Order
		err    error
	)
	if middleware.IsAdmin(c) {
		orders, err = h.orderService.GetAllOrders()
	} else {
		orders, err = h.orderService.GetOrdersForUser(middleware.UserID(c))
	}
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.orderService.GetOrderByID(orderID, middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// StatusUpdateBody is the request body for an admin status change.
type StatusUpdateBody struct {
	Status         string `json:"status" validate:"required"`
	Reason         string `json:"reason"`
	PickedUpByName string `json:"picked_up_by_name"`
	PickedUpByIDNo string `json:"picked_up_by_id_no"`
}

// HandleUpdateOrderStatus moves an order through the fulfillment graph.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var body StatusUpdateBody
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing status update body for order %s: %v", orderID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}

	target, known := models.ParseOrderStatus(body.Status)
	if !known {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Unknown order status",
			"error":   body.Status,
		})
	}

	req := services.TransitionRequest{
		Target: target,
		Actor:  services.ActorAdmin,
		Reason: body.Reason,
	}
	if body.PickedUpByName != "" || body.PickedUpByIDNo != "" {
		req.Pickup = &models.PickupDetails{
			Name: body.PickedUpByName,
			IDNo: body.PickedUpByIDNo,
		}
	}

	order, err := h.orderService.Transition(orderID, req)
	if err != nil {
		return respondError(c, err, "Could not update order status")
	}
	return c.JSON(order)
}
