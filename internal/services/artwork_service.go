package services

import (
	"log"

	"galeri/internal/models"
	"galeri/internal/repositories"
)

// ArtworkService handles business logic related to artworks. Catalog writes
// notify the admin audience so back-office staff see changes without
// watching the database.
type ArtworkService struct {
	repo     repositories.ArtworkRepository
	notifier *NotificationService
}

// NewArtworkService creates a new ArtworkService.
func NewArtworkService(repo repositories.ArtworkRepository, notifier *NotificationService) *ArtworkService {
	return &ArtworkService{
		repo:     repo,
		notifier: notifier,
	}
}

// GetAllArtworks retrieves all artworks.
func (s *ArtworkService) GetAllArtworks() ([]models.Artwork, error) {
	return s.repo.GetAll()
}

// GetArtworkByID retrieves a single artwork by its ID.
func (s *ArtworkService) GetArtworkByID(id string) (*models.Artwork, error) {
	return s.repo.GetByID(id)
}

// CreateArtwork creates a new artwork.
func (s *ArtworkService) CreateArtwork(artwork *models.Artwork) error {
	if err := s.repo.Create(artwork); err != nil {
		return err
	}
	s.emitCatalogChange(artwork.Name, "was added to the catalog")
	return nil
}

// UpdateArtwork updates an existing artwork.
func (s *ArtworkService) UpdateArtwork(artwork *models.Artwork) error {
	if err := s.repo.Update(artwork); err != nil {
		return err
	}
	s.emitCatalogChange(artwork.Name, "was updated")
	return nil
}

// DeleteArtwork deletes an artwork by its ID. Past order items keep their
// frozen copy of the artwork's name and price.
func (s *ArtworkService) DeleteArtwork(id string) error {
	artwork, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.emitCatalogChange(artwork.Name, "was removed from the catalog")
	return nil
}

func (s *ArtworkService) emitCatalogChange(name, reason string) {
	if err := s.notifier.Emit(Event{
		Kind:    EventArtworkChanged,
		Subject: name,
		Reason:  reason,
	}); err != nil {
		log.Printf("Failed to notify for artwork %q: %v", name, err)
	}
}
