package repositories

import (
	"fmt"
	"time"

	"galeri/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders with their items, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByUser retrieves a user's orders with their items, newest first.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// CreateWithItems creates the order, its items and the stock decrements in a
// single transaction. Artwork rows are locked FOR UPDATE before the stock
// check so two concurrent checkouts on the same artwork serialize and the
// loser sees the decremented count.
func (r *GORMOrderRepository) CreateWithItems(order *models.Order, items []models.CartItem, deliveryFee float64) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		subtotal := 0.0
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			var artwork models.Artwork
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&artwork, "id = ?", it.ArtworkID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return fmt.Errorf("artwork with ID %s: %w", it.ArtworkID, models.ErrNotFound)
				}
				return fmt.Errorf("failed to lock artwork %s: %w", it.ArtworkID, err)
			}
			if artwork.StockQuantity < it.Quantity {
				return models.NewValidationError("stock", "insufficient stock for '%s' (requested: %d, available: %d)",
					artwork.Name, it.Quantity, artwork.StockQuantity)
			}
			res := tx.Model(&models.Artwork{}).
				Where("id = ? AND stock_quantity >= ?", it.ArtworkID, it.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", it.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement stock for artwork %s: %w", it.ArtworkID, res.Error)
			}
			if res.RowsAffected == 0 {
				return models.NewValidationError("stock", "insufficient stock for '%s'", artwork.Name)
			}
			orderItems = append(orderItems, models.OrderItem{
				ID:              uuid.New().String(),
				OrderID:         order.ID,
				ArtworkID:       artwork.ID,
				ArtworkName:     artwork.Name,
				ArtworkImageURL: artwork.ImageURL,
				Quantity:        it.Quantity,
				PriceAtPurchase: artwork.Price,
			})
			subtotal += artwork.Price * float64(it.Quantity)
		}

		order.Status = models.OrderPending
		order.TotalPrice = subtotal + deliveryFee
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		order.Items = orderItems
		return nil
	})
}

// DeleteWithRestock removes an order and its items and re-increments the
// stock they had reserved, in one transaction.
func (r *GORMOrderRepository) DeleteWithRestock(orderID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var items []models.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load items for order %s: %w", orderID, err)
		}
		for _, it := range items {
			if err := tx.Model(&models.Artwork{}).Where("id = ?", it.ArtworkID).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", it.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to restore stock for artwork %s: %w", it.ArtworkID, err)
			}
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete items for order %s: %w", orderID, err)
		}
		res := tx.Delete(&models.Order{}, "id = ?", orderID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete order %s: %w", orderID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order with ID %s: %w", orderID, models.ErrNotFound)
		}
		return nil
	})
}

// TransitionStatus applies the status change with a conditional UPDATE on the
// current status. Zero rows affected means another writer won the race; the
// caller decides whether that is an error. Stock restoration for
// cancellations happens in the same transaction.
func (r *GORMOrderRepository) TransitionStatus(id string, from, to models.OrderStatus, update OrderStatusUpdate) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		}
		if update.PaymentGatewayRef != "" {
			fields["payment_gateway_ref"] = update.PaymentGatewayRef
		}
		if update.Pickup != nil {
			fields["picked_up_by_name"] = update.Pickup.Name
			fields["picked_up_by_id_no"] = update.Pickup.IDNo
			fields["picked_up_at"] = update.PickedUpAt
		}
		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", id, from).Updates(fields)
		if res.Error != nil {
			return fmt.Errorf("failed to transition order %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil // lost the race, nothing to roll back
		}
		applied = true

		if update.RestoreStock {
			var items []models.OrderItem
			if err := tx.Where("order_id = ?", id).Find(&items).Error; err != nil {
				return fmt.Errorf("failed to load items for order %s: %w", id, err)
			}
			for _, it := range items {
				if err := tx.Model(&models.Artwork{}).Where("id = ?", it.ArtworkID).
					UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", it.Quantity)).Error; err != nil {
					return fmt.Errorf("failed to restore stock for artwork %s: %w", it.ArtworkID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
