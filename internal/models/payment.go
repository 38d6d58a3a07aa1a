package models

import "time"

// PendingPaymentStatus is the lifecycle state of an outbound STK push
// awaiting its provider callback.
type PendingPaymentStatus string

const (
	PaymentAwaitingCallback PendingPaymentStatus = "awaiting_callback"
	PaymentResolved         PendingPaymentStatus = "resolved"
	PaymentExpired          PendingPaymentStatus = "expired"
)

// PendingPayment correlates one outbound gateway request to one order.
// CheckoutRequestID is the provider-issued token returned synchronously from
// initiation and is the join key for the asynchronous callback. Exactly one
// of resolved/expired ever wins; the repositories enforce that with a
// compare-and-set on Status.
type PendingPayment struct {
	ID                string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CheckoutRequestID string               `json:"checkout_request_id" gorm:"type:varchar(100);uniqueIndex;not null"`
	OrderID           string               `json:"order_id" gorm:"type:varchar(36);index;not null"`
	Amount            float64              `json:"amount"`
	PayerPhone        string               `json:"payer_phone" gorm:"type:varchar(15)"`
	Status            PendingPaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'awaiting_callback'"`
	ResultDesc        string               `json:"result_desc" gorm:"type:varchar(255)"`
	CreatedAt         time.Time            `json:"created_at"`
	ExpiresAt         time.Time            `json:"expires_at" gorm:"index"`
}
