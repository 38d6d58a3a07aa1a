package repositories

import (
	"time"

	"galeri/internal/models"
)

// PaymentRepository defines the interface for pending payment data access.
// Resolve and ExpireDue are compare-and-set operations on Status: for any
// one pending payment, at most one caller ever wins, which is what makes
// duplicate callbacks and concurrent expiry sweeps no-ops.
type PaymentRepository interface {
	Create(p *models.PendingPayment) error
	GetByCheckoutRequestID(checkoutRequestID string) (*models.PendingPayment, error)
	// Resolve atomically moves the pending payment from awaiting_callback to
	// resolved and records the provider's result description. It returns
	// models.ErrUnknownCallback when no row is awaiting under that ID.
	Resolve(checkoutRequestID, resultDesc string) (*models.PendingPayment, error)
	// ExpireDue marks every awaiting payment whose ExpiresAt has passed as
	// expired and returns only the rows this call transitioned, so a sweep
	// racing another sweep cannot process the same payment twice.
	ExpireDue(now time.Time) ([]models.PendingPayment, error)
}
