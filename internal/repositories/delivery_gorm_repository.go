package repositories

import (
	"fmt"

	"galeri/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMDeliveryRepository is a GORM implementation of DeliveryRepository.
type GORMDeliveryRepository struct {
	db *gorm.DB
}

// NewGORMDeliveryRepository creates a new instance of GORMDeliveryRepository.
func NewGORMDeliveryRepository(db *gorm.DB) *GORMDeliveryRepository {
	return &GORMDeliveryRepository{
		db: db,
	}
}

// GetActive retrieves active delivery options ordered for display.
func (r *GORMDeliveryRepository) GetActive() ([]models.DeliveryOption, error) {
	var options []models.DeliveryOption
	if err := r.db.Where("active = ?", true).Order("sort_order, name").Find(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to get delivery options: %w", err)
	}
	return options, nil
}

// GetByID retrieves a single delivery option.
func (r *GORMDeliveryRepository) GetByID(id string) (*models.DeliveryOption, error) {
	var option models.DeliveryOption
	if err := r.db.First(&option, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("delivery option with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get delivery option by ID %s: %w", id, err)
	}
	return &option, nil
}

// Create creates a new delivery option.
func (r *GORMDeliveryRepository) Create(option *models.DeliveryOption) error {
	if option.ID == "" {
		option.ID = uuid.New().String()
	}
	if err := r.db.Create(option).Error; err != nil {
		return fmt.Errorf("failed to create delivery option: %w", err)
	}
	return nil
}

// Update updates an existing delivery option.
func (r *GORMDeliveryRepository) Update(option *models.DeliveryOption) error {
	res := r.db.Save(option)
	if res.Error != nil {
		return fmt.Errorf("failed to update delivery option: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delivery option with ID %s: %w", option.ID, models.ErrNotFound)
	}
	return nil
}
