package models

import "time"

// DeliveryOption is a shipping or pickup method a customer can choose at
// checkout. The fee is added to the order total; pickup options waive the
// shipping address requirement.
type DeliveryOption struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(150);not null"`
	Fee       float64   `json:"fee"`
	IsPickup  bool      `json:"is_pickup"`
	Active    bool      `json:"active" gorm:"default:true"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
