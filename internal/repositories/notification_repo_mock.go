package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"galeri/internal/models"

	"github.com/google/uuid"
)

// MockNotificationRepository is an in-memory implementation of
// NotificationRepository.
type MockNotificationRepository struct {
	notifications map[string]models.Notification
	seq           int // tiebreaker for equal CreatedAt in fast tests
	order         map[string]int
	mu            sync.RWMutex
}

// NewMockNotificationRepository creates a new instance of
// MockNotificationRepository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[string]models.Notification),
		order:         make(map[string]int),
	}
}

// Create adds a single notification.
func (r *MockNotificationRepository) Create(n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(n)
	return nil
}

// CreateBatch adds a set of notifications.
func (r *MockNotificationRepository) CreateBatch(ns []models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range ns {
		r.put(&ns[i])
	}
	return nil
}

func (r *MockNotificationRepository) put(n *models.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.seq++
	r.order[n.ID] = r.seq
	r.notifications[n.ID] = *n
}

// GetByID returns a notification by its ID.
func (r *MockNotificationRepository) GetByID(id string) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification with ID %s: %w", id, models.ErrNotFound)
	}
	return &n, nil
}

func (r *MockNotificationRepository) visible(n models.Notification, userID string, isAdmin bool) bool {
	if isAdmin && n.ForAdminAudience {
		return true
	}
	return n.UserID == userID && !n.ForAdminAudience
}

// ListForUser pages through the scoped feed newest-first.
func (r *MockNotificationRepository) ListForUser(userID string, isAdmin bool, unreadOnly bool, page, perPage int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	scoped := make([]models.Notification, 0)
	var unread int64
	for _, n := range r.notifications {
		if !r.visible(n, userID, isAdmin) {
			continue
		}
		if !n.IsRead() {
			unread++
		}
		if unreadOnly && n.IsRead() {
			continue
		}
		scoped = append(scoped, n)
	}
	sort.Slice(scoped, func(i, j int) bool {
		if scoped[i].CreatedAt.Equal(scoped[j].CreatedAt) {
			return r.order[scoped[i].ID] > r.order[scoped[j].ID]
		}
		return scoped[i].CreatedAt.After(scoped[j].CreatedAt)
	})

	total := int64(len(scoped))
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	start := (page - 1) * perPage
	if start > len(scoped) {
		start = len(scoped)
	}
	end := start + perPage
	if end > len(scoped) {
		end = len(scoped)
	}

	return &NotificationPage{
		Items:       scoped[start:end],
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
		HasNext:     page < pages,
		HasPrev:     page > 1 && total > 0,
		UnreadCount: unread,
	}, nil
}

// MarkRead sets ReadAt once; already-read notifications come back unchanged.
func (r *MockNotificationRepository) MarkRead(id string, at time.Time) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification with ID %s: %w", id, models.ErrNotFound)
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		r.notifications[id] = n
	}
	return &n, nil
}

// MarkAllRead marks the currently unread scoped set.
func (r *MockNotificationRepository) MarkAllRead(userID string, isAdmin bool, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, n := range r.notifications {
		if !r.visible(n, userID, isAdmin) || n.IsRead() {
			continue
		}
		n.ReadAt = &at
		r.notifications[id] = n
		count++
	}
	return count, nil
}
