package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"galeri/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It cooperates with a MockArtworkRepository for the stock side of checkout,
// compensation and cancellation, mirroring what the GORM implementation does
// inside one database transaction.
type MockOrderRepository struct {
	orders   map[string]models.Order
	artworks *MockArtworkRepository
	mu       sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository backed
// by the given artwork repository for stock accounting.
func NewMockOrderRepository(artworks *MockArtworkRepository) *MockOrderRepository {
	return &MockOrderRepository{
		orders:   make(map[string]models.Order),
		artworks: artworks,
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, order)
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList, nil
}

// GetByUser returns a user's orders, newest first.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	all, _ := r.GetAll()
	out := make([]models.Order, 0)
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	return &order, nil
}

// CreateWithItems reserves stock all-or-nothing, then stores the order with
// frozen item prices.
func (r *MockOrderRepository) CreateWithItems(order *models.Order, items []models.CartItem, deliveryFee float64) error {
	snapshots, err := r.artworks.reserveStock(items)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	subtotal := 0.0
	orderItems := make([]models.OrderItem, 0, len(items))
	for i, it := range items {
		a := snapshots[i]
		orderItems = append(orderItems, models.OrderItem{
			ID:              uuid.New().String(),
			OrderID:         order.ID,
			ArtworkID:       a.ID,
			ArtworkName:     a.Name,
			ArtworkImageURL: a.ImageURL,
			Quantity:        it.Quantity,
			PriceAtPurchase: a.Price,
		})
		subtotal += a.Price * float64(it.Quantity)
	}
	order.Status = models.OrderPending
	order.TotalPrice = subtotal + deliveryFee
	order.Items = orderItems
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// DeleteWithRestock removes the order and gives its stock back.
func (r *MockOrderRepository) DeleteWithRestock(orderID string) error {
	r.mu.Lock()
	order, ok := r.orders[orderID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("order with ID %s: %w", orderID, models.ErrNotFound)
	}
	delete(r.orders, orderID)
	r.mu.Unlock()

	r.artworks.restoreStock(order.Items)
	return nil
}

// TransitionStatus applies the status change only if the order is still in
// from, under the repository lock.
func (r *MockOrderRepository) TransitionStatus(id string, from, to models.OrderStatus, update OrderStatusUpdate) (bool, error) {
	r.mu.Lock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		r.mu.Unlock()
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	if update.PaymentGatewayRef != "" {
		order.PaymentGatewayRef = update.PaymentGatewayRef
	}
	if update.Pickup != nil {
		order.PickedUpByName = update.Pickup.Name
		order.PickedUpByIDNo = update.Pickup.IDNo
		order.PickedUpAt = update.PickedUpAt
	}
	r.orders[id] = order
	r.mu.Unlock()

	if update.RestoreStock {
		r.artworks.restoreStock(order.Items)
	}
	return true, nil
}
