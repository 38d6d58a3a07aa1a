package handlers

import (
	"errors"
	"log"

	"galeri/internal/models"
	"galeri/internal/services"
	"galeri/pkg/daraja"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler receives the provider's payment callbacks.
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RegisterRoutes registers the payment callback route. The route is
// unauthenticated: the provider posts to it directly.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/callback", h.HandleCallback)
}

// HandleCallback processes one provider callback. The response is always the
// provider's acknowledgment format with HTTP 200: a non-200 would make the
// provider retry, and retries are already harmless because duplicate
// callbacks resolve to no-ops internally.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	var payload daraja.CallbackPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Unparseable payment callback: %v", err)
		return c.JSON(daraja.Accepted())
	}

	crid := payload.CheckoutRequestID()
	if crid == "" {
		log.Printf("Payment callback without a checkout request ID")
		return c.JSON(daraja.Accepted())
	}

	err := h.paymentService.HandleCallback(crid, payload.ResultCode(), payload.ResultDesc(), payload.ReceiptNumber())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnknownCallback):
			log.Printf("Callback %s did not match a pending payment (duplicate or expired)", crid)
		case errors.Is(err, models.ErrIllegalTransition):
			log.Printf("Callback %s lost its settlement race: %v", crid, err)
		default:
			log.Printf("Callback %s processing failed: %v", crid, err)
		}
	}
	return c.JSON(daraja.Accepted())
}
