package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/repositories"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/cache"
	"github.com/yigit/acadtrack/internal/pkg/helpers"
	"github.com/yigit/acadtrack/internal/pkg/websocket"
)

// EventNotificationCreated is the websocket event type for new notifications
const EventNotificationCreated = "notification.created"

// NotificationService is the notification sink. The database is the source
// of truth; the unread counter cache and websocket push are best-effort.
type NotificationService struct {
	store     NotificationStore
	resolver  *auth.IdentityResolver
	cache     cache.Cache
	publisher Publisher
	unreadTTL time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	// generations counts invalidations per unread key so a count read
	// before an invalidation is never left in the cache after it
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewNotificationService creates a new NotificationService. cache and
// publisher may be nil.
func NewNotificationService(
	store NotificationStore,
	resolver *auth.IdentityResolver,
	c cache.Cache,
	publisher Publisher,
	unreadTTL time.Duration,
	logger zerolog.Logger,
) *NotificationService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &NotificationService{
		store:     store,
		resolver:  resolver,
		cache:     c,
		publisher: publisher,
		unreadTTL: unreadTTL,
		logger:    logger,
		now:       time.Now,

		generations: make(map[string]uint64),
	}
}

func unreadKey(recipientID int64, role models.Role) string {
	return fmt.Sprintf("notifications:unread:%s:%d", role, recipientID)
}

func (s *NotificationService) generation(key string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[key]
}

func (s *NotificationService) invalidateUnread(ctx context.Context, recipientID int64, role models.Role) {
	key := unreadKey(recipientID, role)
	s.genMu.Lock()
	s.generations[key]++
	s.genMu.Unlock()

	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Int64("recipientID", recipientID).Msg("Failed to invalidate unread count cache")
	}
}

// Create stores a notification for a recipient and pushes it to any open
// websocket connection of that recipient
func (s *NotificationService) Create(
	ctx context.Context,
	recipientID int64,
	role models.Role,
	kind models.NotificationKind,
	title, message string,
	links models.NotificationLinks,
) (*models.Notification, error) {
	if recipientID <= 0 || !role.Valid() {
		return nil, apperrors.NewValidationError("notification recipient is invalid")
	}
	if !kind.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown notification kind %q", kind))
	}

	n := &models.Notification{
		RecipientID:   recipientID,
		RecipientRole: role,
		Kind:          kind,
		Title:         title,
		Message:       message,
		CourseID:      links.CourseID,
		GradeID:       links.GradeID,
		AttendanceID:  links.AttendanceID,
		EnrollmentID:  links.EnrollmentID,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, recipientID, role)
	if s.publisher != nil {
		s.publisher.Publish(websocket.Recipient{ID: recipientID, Role: role}, EventNotificationCreated, n)
	}

	s.logger.Debug().
		Int64("notificationID", n.ID).
		Int64("recipientID", recipientID).
		Str("kind", string(kind)).
		Msg("Notification created")
	return n, nil
}

// FindRecent returns the newest notification of kind for (recipient, course)
// created within the window. A window <= 0 matches a notification of any age.
// Returns nil, nil when there is none.
func (s *NotificationService) FindRecent(
	ctx context.Context,
	recipientID int64,
	role models.Role,
	courseID int64,
	kind models.NotificationKind,
	within time.Duration,
) (*models.Notification, error) {
	var since *time.Time
	if within > 0 {
		t := s.now().Add(-within)
		since = &t
	}
	return s.store.FindRecent(ctx, recipientID, role, courseID, kind, since)
}

// List returns a page of a recipient's notifications, newest first
func (s *NotificationService) List(ctx context.Context, recipientID int64, role models.Role, opts repositories.NotificationListOptions) ([]*models.Notification, int64, error) {
	opts.Limit, opts.Offset = helpers.NormalizeLimitOffset(opts.Limit, opts.Offset)
	return s.store.List(ctx, recipientID, role, opts)
}

// UnreadCount returns the number of unread notifications, served from cache
// when possible. A count that raced with an invalidation in this process is
// returned but not kept in the cache. Writers in other processes only delete
// the key, so across replicas the cached value may lag by up to unreadTTL.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID int64, role models.Role) (int64, error) {
	key := unreadKey(recipientID, role)
	gen := s.generation(key)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		if count, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return count, nil
		}
	} else if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Unread count cache read failed")
	}

	count, err := s.store.CountUnread(ctx, recipientID, role)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Set(ctx, key, strconv.FormatInt(count, 10), s.unreadTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Unread count cache write failed")
		return count, nil
	}
	if s.generation(key) != gen {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to drop stale unread count")
		}
	}
	return count, nil
}

// MarkRead flags one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID int64, role models.Role) error {
	if err := s.store.MarkRead(ctx, id, recipientID, role); err != nil {
		return err
	}
	s.invalidateUnread(ctx, recipientID, role)
	return nil
}

// MarkAllRead flags every notification of the recipient as read
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int64, role models.Role) (int64, error) {
	updated, err := s.store.MarkAllRead(ctx, recipientID, role)
	if err != nil {
		return 0, err
	}
	s.invalidateUnread(ctx, recipientID, role)
	return updated, nil
}

// Delete removes one notification
func (s *NotificationService) Delete(ctx context.Context, id, recipientID int64, role models.Role) error {
	if err := s.store.Delete(ctx, id, recipientID, role); err != nil {
		return err
	}
	s.invalidateUnread(ctx, recipientID, role)
	return nil
}

// ListFor lists the caller's notifications. A caller without a profile gets
// an empty page rather than an error.
func (s *NotificationService) ListFor(ctx context.Context, p auth.Principal, opts repositories.NotificationListOptions) ([]*models.Notification, int64, error) {
	profile, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		if errors.Is(err, apperrors.ErrProfileNotFound) {
			s.logger.Debug().Int64("accountID", p.AccountID).Msg("No profile for notification listing, returning empty list")
			return []*models.Notification{}, 0, nil
		}
		return nil, 0, err
	}
	return s.List(ctx, profile.ID, profile.Role, opts)
}

// UnreadCountFor returns the caller's unread count, zero without a profile
func (s *NotificationService) UnreadCountFor(ctx context.Context, p auth.Principal) (int64, error) {
	profile, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		if errors.Is(err, apperrors.ErrProfileNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.UnreadCount(ctx, profile.ID, profile.Role)
}

// MarkReadFor marks one of the caller's notifications as read
func (s *NotificationService) MarkReadFor(ctx context.Context, p auth.Principal, id int64) error {
	profile, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}
	return s.MarkRead(ctx, id, profile.ID, profile.Role)
}

// MarkAllReadFor marks all of the caller's notifications as read
func (s *NotificationService) MarkAllReadFor(ctx context.Context, p auth.Principal) (int64, error) {
	profile, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return 0, err
	}
	return s.MarkAllRead(ctx, profile.ID, profile.Role)
}

// DeleteFor deletes one of the caller's notifications
func (s *NotificationService) DeleteFor(ctx context.Context, p auth.Principal, id int64) error {
	profile, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}
	return s.Delete(ctx, id, profile.ID, profile.Role)
}

// RecipientFor resolves the websocket recipient of the caller
func (s *NotificationService) RecipientFor(ctx context.Context, p auth.Principal) (websocket.Recipient, error) {
	profile, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return websocket.Recipient{}, err
	}
	return websocket.Recipient{ID: profile.ID, Role: profile.Role}, nil
}
