package services

import (
	"context"
	"log"

	"galeri/internal/models"
	"galeri/internal/repositories"
	"galeri/pkg/daraja"
)

// CheckoutRequest is the validated input of one checkout attempt.
type CheckoutRequest struct {
	UserID           string
	Items            []models.CartItem
	DeliveryOptionID string
	ShippingAddress  string
	PayerPhone       string
}

// CheckoutResult carries what the buyer needs after checkout: the order to
// poll and the checkout request id the payment prompt was issued under.
type CheckoutResult struct {
	OrderID           string  `json:"order_id"`
	CheckoutRequestID string  `json:"checkout_request_id"`
	TotalPrice        float64 `json:"total_price"`
}

// CheckoutService runs the checkout pipeline: validate the cart, reserve
// stock and create the order atomically, then push the payment prompt. A
// failed prompt rolls the order back and restores stock, so a rejected
// checkout leaves no trace.
type CheckoutService struct {
	orderRepo      repositories.OrderRepository
	deliveryRepo   repositories.DeliveryRepository
	paymentService *PaymentService
	notifier       *NotificationService
}

func NewCheckoutService(orderRepo repositories.OrderRepository, deliveryRepo repositories.DeliveryRepository, paymentService *PaymentService, notifier *NotificationService) *CheckoutService {
	return &CheckoutService{
		orderRepo:      orderRepo,
		deliveryRepo:   deliveryRepo,
		paymentService: paymentService,
		notifier:       notifier,
	}
}

// Checkout places an order for the given cart and initiates payment for it.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, models.NewValidationError("items", "cart is empty")
	}
	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if item.ArtworkID == "" {
			return nil, models.NewValidationError("items", "artwork id is required")
		}
		if item.Quantity <= 0 {
			return nil, models.NewValidationError("items", "quantity for artwork %s must be positive", item.ArtworkID)
		}
		if seen[item.ArtworkID] {
			return nil, models.NewValidationError("items", "artwork %s appears more than once", item.ArtworkID)
		}
		seen[item.ArtworkID] = true
	}
	if !daraja.ValidPhone(req.PayerPhone) {
		return nil, models.NewValidationError("payer_phone", "phone number must be in 2547XXXXXXXX format")
	}

	option, err := s.deliveryRepo.GetByID(req.DeliveryOptionID)
	if err != nil {
		return nil, models.NewValidationError("delivery_option_id", "delivery option %s not found", req.DeliveryOptionID)
	}
	if !option.Active {
		return nil, models.NewValidationError("delivery_option_id", "delivery option %q is not available", option.Name)
	}
	if !option.IsPickup && req.ShippingAddress == "" {
		return nil, models.NewValidationError("shipping_address", "shipping address is required for delivery orders")
	}

	order := &models.Order{
		UserID:           req.UserID,
		DeliveryOptionID: option.ID,
		ShippingAddress:  req.ShippingAddress,
	}
	if err := s.orderRepo.CreateWithItems(order, req.Items, option.Fee); err != nil {
		return nil, err
	}

	checkoutRequestID, err := s.paymentService.Initiate(ctx, order, req.PayerPhone)
	if err != nil {
		// The order only exists so the callback can settle it; without a
		// prompt in flight it must not hold stock.
		if rbErr := s.orderRepo.DeleteWithRestock(order.ID); rbErr != nil {
			log.Printf("Failed to roll back order %s after payment initiation failure: %v", order.ID, rbErr)
		}
		return nil, err
	}

	if emitErr := s.notifier.Emit(Event{
		Kind:    EventOrderCreated,
		UserID:  order.UserID,
		OrderID: order.ID,
		Status:  order.Status,
		Amount:  order.TotalPrice,
	}); emitErr != nil {
		log.Printf("Failed to notify for order %s: %v", order.ID, emitErr)
	}

	return &CheckoutResult{
		OrderID:           order.ID,
		CheckoutRequestID: checkoutRequestID,
		TotalPrice:        order.TotalPrice,
	}, nil
}
