package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"galeri/internal/models"
	"galeri/internal/repositories"
	"galeri/pkg/daraja"
)

// Gateway is the slice of the mobile-money provider the payment service
// needs: push a payment prompt, get back the correlation token.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, phone string, amount float64, accountRef, description string) (string, error)
}

// PaymentService owns the outbound payment leg and the inbound callback leg:
// it registers pending payments awaiting a provider callback, settles orders
// when the callback lands, and expires payments whose callback never came.
type PaymentService struct {
	paymentRepo  repositories.PaymentRepository
	orderService *OrderService
	gateway      Gateway
	expiryWindow time.Duration
}

// NewPaymentService creates a new PaymentService. expiryWindow bounds how
// long an order may sit pending after checkout before the sweep cancels it.
func NewPaymentService(paymentRepo repositories.PaymentRepository, orderService *OrderService, gateway Gateway, expiryWindow time.Duration) *PaymentService {
	if expiryWindow <= 0 {
		expiryWindow = 5 * time.Minute
	}
	return &PaymentService{
		paymentRepo:  paymentRepo,
		orderService: orderService,
		gateway:      gateway,
		expiryWindow: expiryWindow,
	}
}

// Initiate pushes the payment prompt for an order and registers the pending
// payment before returning, so the callback always has a row to match.
// Gateway failures are classified as ErrGatewayUnavailable and leave no
// pending payment behind.
func (s *PaymentService) Initiate(ctx context.Context, order *models.Order, payerPhone string) (string, error) {
	if order.TotalPrice <= 0 {
		return "", fmt.Errorf("order %s total is %.2f: %w", order.ID, order.TotalPrice, models.ErrInvalidAmount)
	}

	description := fmt.Sprintf("Galeri order %s", shortID(order.ID))
	checkoutRequestID, err := s.gateway.InitiateSTKPush(ctx, payerPhone, order.TotalPrice, order.ID, description)
	if err != nil {
		return "", fmt.Errorf("payment initiation for order %s failed: %w: %v", order.ID, models.ErrGatewayUnavailable, err)
	}

	pending := &models.PendingPayment{
		CheckoutRequestID: checkoutRequestID,
		OrderID:           order.ID,
		Amount:            order.TotalPrice,
		PayerPhone:        payerPhone,
		Status:            models.PaymentAwaitingCallback,
		ExpiresAt:         time.Now().Add(s.expiryWindow),
	}
	if err := s.paymentRepo.Create(pending); err != nil {
		// The prompt is already on the payer's phone, but with no pending
		// row the callback will be treated as unknown and acked without
		// side effects, so the order can be safely rolled back by the caller.
		return "", fmt.Errorf("failed to register pending payment for order %s: %w: %v", order.ID, models.ErrGatewayUnavailable, err)
	}
	return checkoutRequestID, nil
}

// HandleCallback applies one provider callback. The Resolve compare-and-set
// is the idempotency guard: of two deliveries of the same callback, exactly
// one reaches the order transition, and the other gets ErrUnknownCallback,
// which the webhook handler logs and acks. Success settles the order as
// paid with the provider reference; failure or cancellation cancels it and
// restores stock. A success code carrying no receipt number counts as a
// failure: an order never reaches paid without a provider reference.
func (s *PaymentService) HandleCallback(checkoutRequestID, resultCode, resultDesc, providerRef string) error {
	missingReceipt := resultCode == daraja.ResultSuccess && providerRef == ""
	if missingReceipt {
		resultDesc = "receipt number missing from successful callback"
	}
	pending, err := s.paymentRepo.Resolve(checkoutRequestID, resultDesc)
	if err != nil {
		return err
	}

	switch {
	case missingReceipt:
		log.Printf("Callback for %s reported success without a receipt number, treating as failed", checkoutRequestID)
		_, err = s.orderService.Transition(pending.OrderID, TransitionRequest{
			Target: models.OrderCancelled,
			Actor:  ActorCallback,
			Reason: "payment confirmation was missing its receipt number",
		})
	case resultCode == daraja.ResultSuccess:
		_, err = s.orderService.Transition(pending.OrderID, TransitionRequest{
			Target:     models.OrderPaid,
			Actor:      ActorCallback,
			GatewayRef: providerRef,
		})
	default:
		_, err = s.orderService.Transition(pending.OrderID, TransitionRequest{
			Target: models.OrderCancelled,
			Actor:  ActorCallback,
			Reason: cancelReason(resultCode, resultDesc),
		})
	}
	if err != nil {
		return fmt.Errorf("callback %s resolved but order %s transition failed: %w", checkoutRequestID, pending.OrderID, err)
	}
	return nil
}

func cancelReason(resultCode, resultDesc string) string {
	switch resultCode {
	case daraja.ResultCancelledByUser:
		return "payment was cancelled on the phone"
	case daraja.ResultTimeout:
		return "payment request timed out"
	case daraja.ResultInsufficient:
		return "insufficient funds"
	default:
		if resultDesc != "" {
			return resultDesc
		}
		return "payment failed"
	}
}

// ExpireOverdue expires every pending payment past its window and cancels
// the orders still pending. Both steps are compare-and-set, so concurrent
// sweeps (or a sweep racing a late callback) settle each payment exactly
// once. It returns how many payments this call expired.
func (s *PaymentService) ExpireOverdue(now time.Time) (int, error) {
	expired, err := s.paymentRepo.ExpireDue(now)
	if err != nil {
		return 0, err
	}
	for _, p := range expired {
		_, err := s.orderService.Transition(p.OrderID, TransitionRequest{
			Target: models.OrderCancelled,
			Actor:  ActorCallback,
			Reason: "payment window expired",
		})
		if err != nil {
			if errors.Is(err, models.ErrIllegalTransition) {
				// The order already settled some other way; the expiry of
				// the payment row alone is correct.
				continue
			}
			log.Printf("Failed to cancel order %s after payment expiry: %v", p.OrderID, err)
		}
	}
	return len(expired), nil
}

// RunExpirySweeper ticks until the context is cancelled. Multiple instances
// may run concurrently; the per-row compare-and-set makes the duplicate work
// a no-op.
func (s *PaymentService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Payment expiry sweeper started (interval %s, window %s)", interval, s.expiryWindow)
	for {
		select {
		case <-ctx.Done():
			log.Println("Payment expiry sweeper stopped")
			return
		case <-ticker.C:
			n, err := s.ExpireOverdue(time.Now())
			if err != nil {
				log.Printf("Payment expiry sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Payment expiry sweep expired %d pending payment(s)", n)
			}
		}
	}
}
