package repositories

import (
	"time"

	"galeri/internal/models"
)

// NotificationPage is one page of a user's notification feed plus the
// counters the client needs to keep its badge and tabs consistent.
type NotificationPage struct {
	Items       []models.Notification `json:"notifications"`
	Total       int64                 `json:"total"`
	Pages       int                   `json:"pages"`
	CurrentPage int                   `json:"current_page"`
	PerPage     int                   `json:"per_page"`
	HasNext     bool                  `json:"has_next"`
	HasPrev     bool                  `json:"has_prev"`
	UnreadCount int64                 `json:"unread_count"`
}

// NotificationRepository defines the interface for notification data access.
// Visibility scope: a regular user sees their own non-admin notifications; an
// admin additionally sees the admin-audience broadcast set.
type NotificationRepository interface {
	Create(n *models.Notification) error
	CreateBatch(ns []models.Notification) error
	GetByID(id string) (*models.Notification, error)
	// ListForUser returns the requested page newest-first together with the
	// unread count for the same visibility scope.
	ListForUser(userID string, isAdmin bool, unreadOnly bool, page, perPage int) (*NotificationPage, error)
	// MarkRead sets ReadAt once; marking an already-read notification
	// returns it unchanged.
	MarkRead(id string, at time.Time) (*models.Notification, error)
	// MarkAllRead marks every notification currently unread in the user's
	// scope and returns how many it touched.
	MarkAllRead(userID string, isAdmin bool, at time.Time) (int64, error)
}
