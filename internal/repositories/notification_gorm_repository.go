package repositories

import (
	"fmt"
	"time"

	"galeri/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMNotificationRepository is a GORM implementation of NotificationRepository.
type GORMNotificationRepository struct {
	db *gorm.DB
}

// NewGORMNotificationRepository creates a new instance of GORMNotificationRepository.
func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{
		db: db,
	}
}

// Create inserts a single notification.
func (r *GORMNotificationRepository) Create(n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := r.db.Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateBatch inserts a set of notifications, used for admin broadcasts.
func (r *GORMNotificationRepository) CreateBatch(ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	for i := range ns {
		if ns[i].ID == "" {
			ns[i].ID = uuid.New().String()
		}
	}
	if err := r.db.Create(&ns).Error; err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

// GetByID retrieves a single notification.
func (r *GORMNotificationRepository) GetByID(id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("notification with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get notification by ID %s: %w", id, err)
	}
	return &n, nil
}

// scoped applies the visibility filter for a user or admin.
func (r *GORMNotificationRepository) scoped(userID string, isAdmin bool) *gorm.DB {
	q := r.db.Model(&models.Notification{})
	if isAdmin {
		return q.Where("for_admin_audience = ? OR (user_id = ? AND for_admin_audience = ?)", true, userID, false)
	}
	return q.Where("user_id = ? AND for_admin_audience = ?", userID, false)
}

// ListForUser returns the requested page newest-first plus the unread count
// for the same scope, so the badge stays consistent while paging.
func (r *GORMNotificationRepository) ListForUser(userID string, isAdmin bool, unreadOnly bool, page, perPage int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	listQuery := r.scoped(userID, isAdmin)
	if unreadOnly {
		listQuery = listQuery.Where("read_at IS NULL")
	}

	var total int64
	if err := listQuery.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	var items []models.Notification
	if err := listQuery.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var unread int64
	if err := r.scoped(userID, isAdmin).Where("read_at IS NULL").Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return &NotificationPage{
		Items:       items,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
		HasNext:     page < pages,
		HasPrev:     page > 1 && total > 0,
		UnreadCount: unread,
	}, nil
}

// MarkRead sets ReadAt only when it is still null; re-marking is a no-op
// that returns the row as is.
func (r *GORMNotificationRepository) MarkRead(id string, at time.Time) (*models.Notification, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to mark notification %s read: %w", id, res.Error)
	}
	return r.GetByID(id)
}

// MarkAllRead marks the currently unread set for the user's scope.
// Notifications created after this call are untouched because the filter
// only matches rows with read_at still null at update time.
func (r *GORMNotificationRepository) MarkAllRead(userID string, isAdmin bool, at time.Time) (int64, error) {
	res := r.scoped(userID, isAdmin).Where("read_at IS NULL").Update("read_at", at)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
