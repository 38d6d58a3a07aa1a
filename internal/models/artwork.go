package models

import "time"

// Artwork represents a piece for sale in the gallery.
type Artwork struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null" validate:"required,min=3,max=255"`
	Description   string    `json:"description" validate:"omitempty,max=2000"`
	ArtistName    string    `json:"artist_name" gorm:"type:varchar(150)" validate:"omitempty,max=150"`
	Price         float64   `json:"price" validate:"required,gt=0"`
	StockQuantity int       `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string    `json:"image_url" gorm:"type:varchar(255)" validate:"omitempty,max=255"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
