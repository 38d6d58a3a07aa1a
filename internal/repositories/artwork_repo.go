package repositories

import (
	"galeri/internal/models"
)

// ArtworkRepository defines the interface for artwork data access.
type ArtworkRepository interface {
	GetAll() ([]models.Artwork, error)
	GetByID(id string) (*models.Artwork, error)
	Create(artwork *models.Artwork) error
	Update(artwork *models.Artwork) error
	Delete(id string) error
}
