package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderPickedUp  OrderStatus = "picked_up"
)

// validNext is the order status transition graph. picked_up carries an extra
// gate on the order's delivery option being a pickup option, checked by the
// order service because it needs the order, not just the status.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderPaid: true, OrderCancelled: true},
	OrderPaid:      {OrderShipped: true, OrderCancelled: true, OrderPickedUp: true},
	OrderShipped:   {OrderDelivered: true, OrderCancelled: true},
	OrderDelivered: {OrderPickedUp: true},
	OrderCancelled: {},
	OrderPickedUp:  {},
}

// CanTransition reports whether the status graph has an edge from -> to.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s OrderStatus) bool {
	return len(validNext[s]) == 0
}

// ParseOrderStatus validates a raw status string from a request body.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	_, known := validNext[status]
	return status, known
}

// Order represents a customer order. Status must only ever change through
// the order service's Transition, which enforces the graph above. A gateway
// reference is unique across orders; orders not yet settled store NULL, so
// the unique index only constrains orders that carry one.
type Order struct {
	ID                string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID            string      `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Status            OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	TotalPrice        float64     `json:"total_price" gorm:"not null"`
	DeliveryOptionID  string      `json:"delivery_option_id" gorm:"type:varchar(36)"`
	ShippingAddress   string      `json:"shipping_address"`
	PaymentGatewayRef string      `json:"payment_gateway_ref" gorm:"type:varchar(255);uniqueIndex;default:null"`
	PickedUpByName    string      `json:"picked_up_by_name" gorm:"type:varchar(150)"`
	PickedUpByIDNo    string      `json:"picked_up_by_id_no" gorm:"type:varchar(50)"`
	PickedUpAt        *time.Time  `json:"picked_up_at"`
	Items             []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderItem is a line in an order. The artwork name, image and price are
// frozen at checkout time so later catalog edits do not rewrite history.
type OrderItem struct {
	ID              string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID         string  `json:"order_id" gorm:"type:varchar(36);index;not null"`
	ArtworkID       string  `json:"artwork_id" gorm:"type:varchar(36);not null"`
	ArtworkName     string  `json:"artwork_name" gorm:"type:varchar(255)"`
	ArtworkImageURL string  `json:"artwork_image_url" gorm:"type:varchar(255)"`
	Quantity        int     `json:"quantity" gorm:"not null"`
	PriceAtPurchase float64 `json:"price_at_purchase" gorm:"not null"`
}

// CartItem is one line of the cart snapshot a checkout request carries.
type CartItem struct {
	ArtworkID string `json:"artwork_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// PickupDetails carries the collector identity an admin supplies when
// completing a pickup order. Both fields are required together.
type PickupDetails struct {
	Name string `json:"picked_up_by_name" validate:"required,min=2,max=150"`
	IDNo string `json:"picked_up_by_id_no" validate:"required,min=4,max=50"`
}
