package repositories

import (
	"fmt"
	"sync"
	"time"

	"galeri/internal/models"

	"github.com/google/uuid"
)

// MockPaymentRepository is an in-memory implementation of PaymentRepository.
// The mutex gives the same winner-takes-all semantics the conditional
// UPDATEs give the GORM implementation.
type MockPaymentRepository struct {
	payments map[string]models.PendingPayment // keyed by checkout request ID
	mu       sync.Mutex
}

// NewMockPaymentRepository creates a new instance of MockPaymentRepository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]models.PendingPayment),
	}
}

// Create registers a pending payment awaiting its callback.
func (r *MockPaymentRepository) Create(p *models.PendingPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = models.PaymentAwaitingCallback
	}
	if _, exists := r.payments[p.CheckoutRequestID]; exists {
		return fmt.Errorf("pending payment for %s already exists", p.CheckoutRequestID)
	}
	p.CreatedAt = time.Now()
	r.payments[p.CheckoutRequestID] = *p
	return nil
}

// GetByCheckoutRequestID retrieves a pending payment by its provider token.
func (r *MockPaymentRepository) GetByCheckoutRequestID(checkoutRequestID string) (*models.PendingPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[checkoutRequestID]
	if !ok {
		return nil, fmt.Errorf("pending payment for %s: %w", checkoutRequestID, models.ErrNotFound)
	}
	return &p, nil
}

// Resolve moves the payment to resolved only if it is still awaiting.
func (r *MockPaymentRepository) Resolve(checkoutRequestID, resultDesc string) (*models.PendingPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[checkoutRequestID]
	if !ok || p.Status != models.PaymentAwaitingCallback {
		return nil, fmt.Errorf("pending payment %s: %w", checkoutRequestID, models.ErrUnknownCallback)
	}
	p.Status = models.PaymentResolved
	p.ResultDesc = resultDesc
	r.payments[checkoutRequestID] = p
	return &p, nil
}

// ExpireDue expires overdue awaiting payments and returns the ones this call
// transitioned.
func (r *MockPaymentRepository) ExpireDue(now time.Time) ([]models.PendingPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expired := make([]models.PendingPayment, 0)
	for key, p := range r.payments {
		if p.Status != models.PaymentAwaitingCallback || !p.ExpiresAt.Before(now) {
			continue
		}
		p.Status = models.PaymentExpired
		p.ResultDesc = "expired without callback"
		r.payments[key] = p
		expired = append(expired, p)
	}
	return expired, nil
}
