package repositories

import (
	"time"

	"galeri/internal/models"
)

// OrderStatusUpdate carries the extra fields a status transition writes
// alongside the status itself, in the same atomic update.
type OrderStatusUpdate struct {
	PaymentGatewayRef string
	Pickup            *models.PickupDetails
	PickedUpAt        *time.Time
	// RestoreStock re-increments artwork stock for every order item, for
	// cancellations out of pending/paid where the sale did not complete.
	RestoreStock bool
}

// OrderRepository defines the interface for order data access. The compound
// operations are atomic: a concurrent checkout can never oversell stock, and
// at most one of two conflicting transitions succeeds.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	// CreateWithItems creates the order in pending together with its items,
	// freezing artwork name/image/price and decrementing stock, all in one
	// transaction. order.TotalPrice is computed as the frozen item subtotal
	// plus deliveryFee. Insufficient stock yields a *models.ValidationError
	// and no mutation.
	CreateWithItems(order *models.Order, items []models.CartItem, deliveryFee float64) error
	// DeleteWithRestock removes an order and its items and restores the
	// decremented stock. Compensation path for failed gateway initiation.
	DeleteWithRestock(orderID string) error
	// TransitionStatus moves the order from -> to with a compare-and-set on
	// the current status, bumping updated_at and applying update atomically.
	// It returns false with no error when the order was not in from anymore,
	// which callers treat as a lost race.
	TransitionStatus(id string, from, to models.OrderStatus, update OrderStatusUpdate) (bool, error)
}
