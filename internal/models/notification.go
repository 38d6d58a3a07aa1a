package models

import "time"

// NotificationType categorizes a notification for the client UI.
type NotificationType string

const (
	NotifNewOrder             NotificationType = "new_order"
	NotifOrderUpdate          NotificationType = "order_update"
	NotifArtworkUpdate        NotificationType = "artwork_update"
	NotifArtistUpdate         NotificationType = "artist_update"
	NotifDeliveryOptionUpdate NotificationType = "delivery_option_update"
	NotifSuccess              NotificationType = "success"
	NotifWarning              NotificationType = "warning"
	NotifError                NotificationType = "error"
	NotifInfo                 NotificationType = "info"
)

// Notification is a poll-based message for a user or the admin audience.
// ReadAt is write-once: once set it never goes back to null.
type Notification struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID           string           `json:"user_id" gorm:"type:varchar(36);index"`
	ForAdminAudience bool             `json:"for_admin_audience" gorm:"index"`
	Type             NotificationType `json:"type" gorm:"type:varchar(30);not null"`
	Message          string           `json:"message" gorm:"type:varchar(500);not null"`
	Link             string           `json:"link" gorm:"type:varchar(255)"`
	ReadAt           *time.Time       `json:"read_at"`
	CreatedAt        time.Time        `json:"created_at" gorm:"index"`
}

// IsRead reports whether the notification has been marked read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
