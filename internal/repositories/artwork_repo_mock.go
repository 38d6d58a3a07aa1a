package repositories

import (
	"fmt"
	"sync"

	"galeri/internal/models"

	"github.com/google/uuid"
)

// MockArtworkRepository is an in-memory implementation of ArtworkRepository.
type MockArtworkRepository struct {
	artworks map[string]models.Artwork
	mu       sync.RWMutex
}

// NewMockArtworkRepository creates a new instance of MockArtworkRepository.
func NewMockArtworkRepository() *MockArtworkRepository {
	return &MockArtworkRepository{
		artworks: make(map[string]models.Artwork),
	}
}

// GetAll returns all artworks.
func (r *MockArtworkRepository) GetAll() ([]models.Artwork, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artworkList := make([]models.Artwork, 0, len(r.artworks))
	for _, a := range r.artworks {
		artworkList = append(artworkList, a)
	}
	return artworkList, nil
}

// GetByID returns an artwork by its ID.
func (r *MockArtworkRepository) GetByID(id string) (*models.Artwork, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artwork, ok := r.artworks[id]
	if !ok {
		return nil, fmt.Errorf("artwork with ID %s: %w", id, models.ErrNotFound)
	}
	return &artwork, nil
}

// Create adds a new artwork.
func (r *MockArtworkRepository) Create(artwork *models.Artwork) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if artwork.ID == "" {
		artwork.ID = uuid.New().String()
	}
	r.artworks[artwork.ID] = *artwork
	return nil
}

// Update modifies an existing artwork.
func (r *MockArtworkRepository) Update(artwork *models.Artwork) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.artworks[artwork.ID]
	if !ok {
		return fmt.Errorf("artwork with ID %s: %w", artwork.ID, models.ErrNotFound)
	}
	r.artworks[artwork.ID] = *artwork
	return nil
}

// Delete removes an artwork by its ID.
func (r *MockArtworkRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.artworks[id]
	if !ok {
		return fmt.Errorf("artwork with ID %s: %w", id, models.ErrNotFound)
	}
	delete(r.artworks, id)
	return nil
}

// reserveStock atomically decrements stock for every cart item, or none of
// them. It returns frozen artwork snapshots in cart order. The single lock
// plays the role row locks play in the GORM implementation: two concurrent
// checkouts against the same artwork serialize here and cannot oversell.
func (r *MockArtworkRepository) reserveStock(items []models.CartItem) ([]models.Artwork, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]models.Artwork, 0, len(items))
	for _, it := range items {
		artwork, ok := r.artworks[it.ArtworkID]
		if !ok {
			return nil, fmt.Errorf("artwork with ID %s: %w", it.ArtworkID, models.ErrNotFound)
		}
		if artwork.StockQuantity < it.Quantity {
			return nil, models.NewValidationError("stock", "insufficient stock for '%s' (requested: %d, available: %d)",
				artwork.Name, it.Quantity, artwork.StockQuantity)
		}
		snapshots = append(snapshots, artwork)
	}
	for _, it := range items {
		artwork := r.artworks[it.ArtworkID]
		artwork.StockQuantity -= it.Quantity
		r.artworks[it.ArtworkID] = artwork
	}
	return snapshots, nil
}

// restoreStock is the compensating increment for a cancelled or rolled-back
// order. Missing artworks are skipped: a delete from the catalog must not
// block a cancellation.
func (r *MockArtworkRepository) restoreStock(items []models.OrderItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range items {
		artwork, ok := r.artworks[it.ArtworkID]
		if !ok {
			continue
		}
		artwork.StockQuantity += it.Quantity
		r.artworks[it.ArtworkID] = artwork
	}
}
