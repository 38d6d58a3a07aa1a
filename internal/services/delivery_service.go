package services

import (
	"log"

	"galeri/internal/models"
	"galeri/internal/repositories"
)

// DeliveryService handles business logic related to delivery options.
type DeliveryService struct {
	repo     repositories.DeliveryRepository
	notifier *NotificationService
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(repo repositories.DeliveryRepository, notifier *NotificationService) *DeliveryService {
	return &DeliveryService{
		repo:     repo,
		notifier: notifier,
	}
}

// GetActiveOptions returns the options a customer may choose at checkout.
func (s *DeliveryService) GetActiveOptions() ([]models.DeliveryOption, error) {
	return s.repo.GetActive()
}

// GetOptionByID retrieves a single delivery option by its ID.
func (s *DeliveryService) GetOptionByID(id string) (*models.DeliveryOption, error) {
	return s.repo.GetByID(id)
}

// CreateOption creates a new delivery option.
func (s *DeliveryService) CreateOption(option *models.DeliveryOption) error {
	if option.Name == "" {
		return models.NewValidationError("name", "name is required")
	}
	if option.Fee < 0 {
		return models.NewValidationError("fee", "fee must not be negative")
	}
	if err := s.repo.Create(option); err != nil {
		return err
	}
	s.emitOptionChange(option.Name, "was added")
	return nil
}

// UpdateOption updates an existing delivery option. Existing orders keep the
// fee they were charged; the option row only governs future checkouts.
func (s *DeliveryService) UpdateOption(option *models.DeliveryOption) error {
	if option.Fee < 0 {
		return models.NewValidationError("fee", "fee must not be negative")
	}
	if err := s.repo.Update(option); err != nil {
		return err
	}
	s.emitOptionChange(option.Name, "was updated")
	return nil
}

func (s *DeliveryService) emitOptionChange(name, reason string) {
	if err := s.notifier.Emit(Event{
		Kind:    EventDeliveryOptionChanged,
		Subject: name,
		Reason:  reason,
	}); err != nil {
		log.Printf("Failed to notify for delivery option %q: %v", name, err)
	}
}
