package repositories

import (
	"fmt"
	"sort"
	"sync"

	"galeri/internal/models"

	"github.com/google/uuid"
)

// MockDeliveryRepository is an in-memory implementation of DeliveryRepository.
type MockDeliveryRepository struct {
	options map[string]models.DeliveryOption
	mu      sync.RWMutex
}

// NewMockDeliveryRepository creates a new instance of MockDeliveryRepository.
func NewMockDeliveryRepository() *MockDeliveryRepository {
	return &MockDeliveryRepository{
		options: make(map[string]models.DeliveryOption),
	}
}

// GetActive returns active options ordered for display.
func (r *MockDeliveryRepository) GetActive() ([]models.DeliveryOption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.DeliveryOption, 0, len(r.options))
	for _, o := range r.options {
		if o.Active {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder == out[j].SortOrder {
			return out[i].Name < out[j].Name
		}
		return out[i].SortOrder < out[j].SortOrder
	})
	return out, nil
}

// GetByID returns a delivery option by its ID.
func (r *MockDeliveryRepository) GetByID(id string) (*models.DeliveryOption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.options[id]
	if !ok {
		return nil, fmt.Errorf("delivery option with ID %s: %w", id, models.ErrNotFound)
	}
	return &o, nil
}

// Create adds a new delivery option.
func (r *MockDeliveryRepository) Create(option *models.DeliveryOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if option.ID == "" {
		option.ID = uuid.New().String()
	}
	r.options[option.ID] = *option
	return nil
}

// Update modifies an existing delivery option.
func (r *MockDeliveryRepository) Update(option *models.DeliveryOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.options[option.ID]; !ok {
		return fmt.Errorf("delivery option with ID %s: %w", option.ID, models.ErrNotFound)
	}
	r.options[option.ID] = *option
	return nil
}
