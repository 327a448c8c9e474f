package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/logger"
)

var notificationColumns = []string{
	"id", "recipient_id", "recipient_role", "kind", "title", "message",
	"course_id", "grade_id", "attendance_id", "enrollment_id", "is_read", "created_at",
}

// NotificationListOptions narrows a recipient's notification list
type NotificationListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// NotificationRepository handles notification rows
type NotificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.RecipientID, &n.RecipientRole, &n.Kind, &n.Title, &n.Message,
		&n.CourseID, &n.GradeID, &n.AttendanceID, &n.EnrollmentID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func recipientEq(recipientID int64, role models.Role) squirrel.Eq {
	return squirrel.Eq{"recipient_id": recipientID, "recipient_role": role}
}

// Create inserts a notification and fills in ID and CreatedAt
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	sql, args, err := r.sb.Insert("notifications").
		Columns("recipient_id", "recipient_role", "kind", "title", "message",
			"course_id", "grade_id", "attendance_id", "enrollment_id", "is_read").
		Values(n.RecipientID, n.RecipientRole, n.Kind, n.Title, n.Message,
			n.CourseID, n.GradeID, n.AttendanceID, n.EnrollmentID, false).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create notification SQL")
		return fmt.Errorf("failed to build create notification query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n.ID, &n.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("recipientID", n.RecipientID).Str("kind", string(n.Kind)).Msg("Error executing create notification query")
		return fmt.Errorf("error creating notification: %w", err)
	}
	n.IsRead = false
	return nil
}

// FindRecent returns the newest notification of kind for (recipient, course)
// created at or after since. A nil since matches any age. Returns nil, nil
// when there is none.
func (r *NotificationRepository) FindRecent(ctx context.Context, recipientID int64, role models.Role, courseID int64, kind models.NotificationKind, since *time.Time) (*models.Notification, error) {
	where := squirrel.And{
		recipientEq(recipientID, role),
		squirrel.Eq{"course_id": courseID, "kind": kind},
	}
	if since != nil {
		where = append(where, squirrel.GtOrEq{"created_at": *since})
	}

	sql, args, err := r.sb.Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find recent notification query: %w", err)
	}

	n, err := scanNotification(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding recent notification: %w", err)
	}
	return n, nil
}

// List returns a page of the recipient's notifications, newest first, and the
// total matching the filter
func (r *NotificationRepository) List(ctx context.Context, recipientID int64, role models.Role, opts NotificationListOptions) ([]*models.Notification, int64, error) {
	where := squirrel.And{recipientEq(recipientID, role)}
	if opts.UnreadOnly {
		where = append(where, squirrel.Eq{"is_read": false})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("notifications").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count notifications query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Int64("recipientID", recipientID).Msg("Error counting notifications")
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	sql, args, err := r.sb.Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list notifications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("recipientID", recipientID).Msg("Error querying notifications")
		return nil, 0, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning notification row: %w", err)
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}

// CountUnread counts the recipient's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64, role models.Role) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("notifications").
		Where(recipientEq(recipientID, role)).
		Where(squirrel.Eq{"is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count unread query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one of the recipient's notifications as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64, role models.Role) error {
	sql, args, err := r.sb.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": id}).
		Where(recipientEq(recipientID, role)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build mark read query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("notificationID", id).Msg("Error executing mark read query")
		return fmt.Errorf("error marking notification read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64, role models.Role) (int64, error) {
	sql, args, err := r.sb.Update("notifications").
		Set("is_read", true).
		Where(recipientEq(recipientID, role)).
		Where(squirrel.Eq{"is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build mark all read query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("recipientID", recipientID).Msg("Error executing mark all read query")
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// Delete removes one of the recipient's notifications
func (r *NotificationRepository) Delete(ctx context.Context, id, recipientID int64, role models.Role) error {
	sql, args, err := r.sb.Delete("notifications").
		Where(squirrel.Eq{"id": id}).
		Where(recipientEq(recipientID, role)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete notification query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("notificationID", id).Msg("Error executing delete notification query")
		return fmt.Errorf("error deleting notification: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}
