package repositories

import (
	"galeri/internal/models"
)

// DeliveryRepository defines the interface for delivery option data access.
type DeliveryRepository interface {
	GetActive() ([]models.DeliveryOption, error)
	GetByID(id string) (*models.DeliveryOption, error)
	Create(option *models.DeliveryOption) error
	Update(option *models.DeliveryOption) error
}
