package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"galeri/internal/models"
	"galeri/internal/repositories"
)

// EventPublisher is the slice of the message broker the dispatcher needs.
// Publishing is fire-and-forget: a broker outage never fails the operation
// that emitted the event.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// EventKind doubles as the broker routing key for the event.
type EventKind string

const (
	EventOrderCreated          EventKind = "order.created"
	EventOrderTransitioned     EventKind = "order.updated"
	EventArtworkChanged        EventKind = "artwork.updated"
	EventArtistChanged         EventKind = "artist.updated"
	EventDeliveryOptionChanged EventKind = "delivery_option.updated"
)

// Event is a domain event the dispatcher turns into notification rows and a
// broker message.
type Event struct {
	Kind    EventKind          `json:"kind"`
	UserID  string             `json:"user_id,omitempty"`
	OrderID string             `json:"order_id,omitempty"`
	Status  models.OrderStatus `json:"status,omitempty"`
	Amount  float64            `json:"amount,omitempty"`
	Subject string             `json:"subject,omitempty"`
	Reason  string             `json:"reason,omitempty"`
}

// NotificationService is the notification dispatcher: it fans domain events
// out into per-user and admin-audience notification rows and serves the
// paginated read/mark-read API.
type NotificationService struct {
	repo      repositories.NotificationRepository
	publisher EventPublisher
}

// NewNotificationService creates a new NotificationService. publisher may be
// nil, in which case broker publishing is skipped.
func NewNotificationService(repo repositories.NotificationRepository, publisher EventPublisher) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
	}
}

// Emit maps a domain event to notification rows: the owning user for order
// events, the admin audience for new paid orders and catalog changes.
// Callers treat a returned error as a dispatch failure to log, never as a
// reason to roll back the transition that produced the event.
func (s *NotificationService) Emit(event Event) error {
	rows := s.rowsFor(event)
	if len(rows) > 0 {
		if err := s.repo.CreateBatch(rows); err != nil {
			return fmt.Errorf("failed to store notifications for %s: %w", event.Kind, err)
		}
	}

	if s.publisher != nil {
		body, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event %s: %v", event.Kind, err)
			return nil
		}
		if err := s.publisher.Publish(string(event.Kind), body); err != nil {
			// Best-effort: the rows are already stored, the poll-based feed
			// still works without the broker.
			log.Printf("Warning: failed to publish event %s: %v", event.Kind, err)
		}
	}
	return nil
}

func (s *NotificationService) rowsFor(event Event) []models.Notification {
	link := ""
	if event.OrderID != "" {
		link = "/orders/" + event.OrderID
	}

	switch event.Kind {
	case EventOrderCreated:
		return []models.Notification{{
			UserID:  event.UserID,
			Type:    models.NotifSuccess,
			Message: fmt.Sprintf("Order %s placed. Check your phone to authorize payment.", shortID(event.OrderID)),
			Link:    link,
		}}

	case EventOrderTransitioned:
		rows := []models.Notification{{
			UserID:  event.UserID,
			Type:    models.NotifOrderUpdate,
			Message: orderUpdateMessage(event),
			Link:    link,
		}}
		if event.Status == models.OrderPaid {
			rows = append(rows, models.Notification{
				ForAdminAudience: true,
				Type:             models.NotifNewOrder,
				Message:          fmt.Sprintf("Order %s paid (KES %.2f).", shortID(event.OrderID), event.Amount),
				Link:             link,
			})
		}
		return rows

	case EventArtworkChanged:
		return []models.Notification{{
			ForAdminAudience: true,
			Type:             models.NotifArtworkUpdate,
			Message:          fmt.Sprintf("Artwork '%s' %s.", event.Subject, event.Reason),
		}}

	case EventArtistChanged:
		return []models.Notification{{
			ForAdminAudience: true,
			Type:             models.NotifArtistUpdate,
			Message:          fmt.Sprintf("Artist '%s' %s.", event.Subject, event.Reason),
		}}

	case EventDeliveryOptionChanged:
		return []models.Notification{{
			ForAdminAudience: true,
			Type:             models.NotifDeliveryOptionUpdate,
			Message:          fmt.Sprintf("Delivery option '%s' %s.", event.Subject, event.Reason),
		}}
	}
	return nil
}

func orderUpdateMessage(event Event) string {
	id := shortID(event.OrderID)
	switch event.Status {
	case models.OrderPaid:
		return fmt.Sprintf("Payment received for order %s. Thank you!", id)
	case models.OrderShipped:
		return fmt.Sprintf("Order %s has been shipped.", id)
	case models.OrderDelivered:
		return fmt.Sprintf("Order %s has been delivered.", id)
	case models.OrderPickedUp:
		return fmt.Sprintf("Order %s was picked up.", id)
	case models.OrderCancelled:
		if event.Reason != "" {
			return fmt.Sprintf("Order %s was cancelled: %s.", id, event.Reason)
		}
		return fmt.Sprintf("Order %s was cancelled.", id)
	default:
		return fmt.Sprintf("Order %s is now %s.", id, event.Status)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ListForUser returns one page of the caller's feed, newest first, with the
// unread count for the same visibility scope.
func (s *NotificationService) ListForUser(userID string, isAdmin bool, unreadOnly bool, page, perPage int) (*repositories.NotificationPage, error) {
	return s.repo.ListForUser(userID, isAdmin, unreadOnly, page, perPage)
}

// MarkRead marks one notification read. Idempotent: an already-read
// notification comes back unchanged. The caller must be in the
// notification's audience.
func (s *NotificationService) MarkRead(id, userID string, isAdmin bool) (*models.Notification, error) {
	n, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !canSee(n, userID, isAdmin) {
		return nil, fmt.Errorf("notification %s is not visible to user %s: %w", id, userID, models.ErrNotFound)
	}
	return s.repo.MarkRead(id, time.Now())
}

// MarkAllRead marks the caller's currently unread set and returns the count.
// Notifications arriving after the call keep their unread state.
func (s *NotificationService) MarkAllRead(userID string, isAdmin bool) (int64, error) {
	return s.repo.MarkAllRead(userID, isAdmin, time.Now())
}

func canSee(n *models.Notification, userID string, isAdmin bool) bool {
	if isAdmin && n.ForAdminAudience {
		return true
	}
	return n.UserID == userID && !n.ForAdminAudience
}
