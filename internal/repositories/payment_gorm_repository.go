package repositories

import (
	"fmt"
	"time"

	"galeri/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPaymentRepository is a GORM implementation of PaymentRepository.
type GORMPaymentRepository struct {
	db *gorm.DB
}

// NewGORMPaymentRepository creates a new instance of GORMPaymentRepository.
func NewGORMPaymentRepository(db *gorm.DB) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db: db,
	}
}

// Create registers a pending payment awaiting its callback.
func (r *GORMPaymentRepository) Create(p *models.PendingPayment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = models.PaymentAwaitingCallback
	}
	if err := r.db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create pending payment: %w", err)
	}
	return nil
}

// GetByCheckoutRequestID retrieves a pending payment by its provider token.
func (r *GORMPaymentRepository) GetByCheckoutRequestID(checkoutRequestID string) (*models.PendingPayment, error) {
	var p models.PendingPayment
	if err := r.db.First(&p, "checkout_request_id = ?", checkoutRequestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("pending payment for %s: %w", checkoutRequestID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pending payment for %s: %w", checkoutRequestID, err)
	}
	return &p, nil
}

// Resolve is a conditional UPDATE keyed on status = awaiting_callback. Zero
// rows affected means the payment was already resolved, expired, or never
// existed, which all collapse to ErrUnknownCallback for the caller.
func (r *GORMPaymentRepository) Resolve(checkoutRequestID, resultDesc string) (*models.PendingPayment, error) {
	res := r.db.Model(&models.PendingPayment{}).
		Where("checkout_request_id = ? AND status = ?", checkoutRequestID, models.PaymentAwaitingCallback).
		Updates(map[string]interface{}{
			"status":      models.PaymentResolved,
			"result_desc": resultDesc,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to resolve pending payment %s: %w", checkoutRequestID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("pending payment %s: %w", checkoutRequestID, models.ErrUnknownCallback)
	}
	return r.GetByCheckoutRequestID(checkoutRequestID)
}

// ExpireDue expires overdue awaiting payments one row at a time, each with
// its own conditional UPDATE, and returns the rows this call won.
func (r *GORMPaymentRepository) ExpireDue(now time.Time) ([]models.PendingPayment, error) {
	var due []models.PendingPayment
	if err := r.db.Where("status = ? AND expires_at < ?", models.PaymentAwaitingCallback, now).
		Find(&due).Error; err != nil {
		return nil, fmt.Errorf("failed to list due pending payments: %w", err)
	}

	expired := make([]models.PendingPayment, 0, len(due))
	for _, p := range due {
		res := r.db.Model(&models.PendingPayment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentAwaitingCallback).
			Updates(map[string]interface{}{
				"status":      models.PaymentExpired,
				"result_desc": "expired without callback",
			})
		if res.Error != nil {
			return expired, fmt.Errorf("failed to expire pending payment %s: %w", p.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue // a callback or another sweep got there first
		}
		p.Status = models.PaymentExpired
		p.ResultDesc = "expired without callback"
		expired = append(expired, p)
	}
	return expired, nil
}
