package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"galeri/internal/models"
	"galeri/internal/repositories"
)

// Actor identifies who is driving a status transition. The callback actor is
// the payment pipeline and may only settle pending orders; admins drive
// fulfillment and pickup.
type Actor string

const (
	ActorCallback Actor = "callback"
	ActorAdmin    Actor = "admin"
)

// TransitionRequest describes one attempted status change.
type TransitionRequest struct {
	Target models.OrderStatus
	Actor  Actor
	// Pickup must carry both collector fields when Target is picked_up.
	Pickup *models.PickupDetails
	// GatewayRef is the provider transaction reference, set by the callback
	// actor on pending -> paid.
	GatewayRef string
	// Reason is included in the cancellation notification when set.
	Reason string
}

// OrderService owns the order state machine. All status mutations in the
// system funnel through Transition.
type OrderService struct {
	orderRepo    repositories.OrderRepository
	deliveryRepo repositories.DeliveryRepository
	notifier     *NotificationService
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, deliveryRepo repositories.DeliveryRepository, notifier *NotificationService) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		deliveryRepo: deliveryRepo,
		notifier:     notifier,
	}
}

// GetAllOrders retrieves all orders, for the admin back office.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrdersForUser retrieves the orders a user owns.
func (s *OrderService) GetOrdersForUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetOrderByID retrieves one order, enforcing ownership for non-admins.
func (s *OrderService) GetOrderByID(id, requesterID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != requesterID {
		return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	return order, nil
}

// Transition applies one status change if the transition graph allows it
// from the order's current status. The write is a compare-and-set on that
// status, so of any concurrent conflicting transitions (duplicate callback,
// expiry sweep, admin cancel) exactly one succeeds. A successful transition
// emits a notification; dispatcher failure is logged and never undoes the
// transition.
func (s *OrderService) Transition(orderID string, req TransitionRequest) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status

	if !models.CanTransition(from, req.Target) {
		return nil, fmt.Errorf("order %s cannot go from %s to %s: %w", orderID, from, req.Target, models.ErrIllegalTransition)
	}
	if req.Actor == ActorCallback && from != models.OrderPending {
		return nil, fmt.Errorf("callback actor cannot move order %s out of %s: %w", orderID, from, models.ErrIllegalTransition)
	}

	update := repositories.OrderStatusUpdate{PaymentGatewayRef: req.GatewayRef}

	if req.Target == models.OrderPickedUp {
		if err := s.checkPickup(order, req.Pickup); err != nil {
			return nil, err
		}
		now := time.Now()
		update.Pickup = req.Pickup
		update.PickedUpAt = &now
	}

	// The sale did not complete: give the reserved stock back.
	if req.Target == models.OrderCancelled && (from == models.OrderPending || from == models.OrderPaid) {
		update.RestoreStock = true
	}

	applied, err := s.orderRepo.TransitionStatus(orderID, from, req.Target, update)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("order %s is no longer %s: %w", orderID, from, models.ErrIllegalTransition)
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		// The transition committed; reading it back is best-effort.
		log.Printf("Order %s transitioned to %s but reload failed: %v", orderID, req.Target, err)
		updated = order
		updated.Status = req.Target
	}

	if err := s.notifier.Emit(Event{
		Kind:    EventOrderTransitioned,
		UserID:  updated.UserID,
		OrderID: updated.ID,
		Status:  req.Target,
		Amount:  updated.TotalPrice,
		Reason:  req.Reason,
	}); err != nil {
		log.Printf("Warning: failed to dispatch notification for order %s -> %s: %v", orderID, req.Target, err)
	}

	return updated, nil
}

// checkPickup validates the picked_up gate: pickup-type delivery option and
// both collector identity fields present.
func (s *OrderService) checkPickup(order *models.Order, pickup *models.PickupDetails) error {
	option, err := s.deliveryRepo.GetByID(order.DeliveryOptionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("order %s has no pickup delivery option: %w", order.ID, models.ErrIllegalTransition)
		}
		return err
	}
	if !option.IsPickup {
		return fmt.Errorf("order %s is not a pickup order: %w", order.ID, models.ErrIllegalTransition)
	}
	if pickup == nil || pickup.Name == "" || pickup.IDNo == "" {
		return models.NewValidationError("pickup", "picked_up_by_name and picked_up_by_id_no are both required")
	}
	return nil
}
