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
	"github.com/yigit/acadtrack/internal/pkg/dberrors"
	"github.com/yigit/acadtrack/internal/pkg/logger"
)

var attendanceColumns = []string{"id", "student_id", "course_id", "date", "status", "created_at", "updated_at"}

// AttendanceRepository handles attendance rows
type AttendanceRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanAttendance(row pgx.Row) (*models.Attendance, error) {
	var a models.Attendance
	if err := row.Scan(&a.ID, &a.StudentID, &a.CourseID, &a.Date, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttendanceRepository) list(ctx context.Context, where squirrel.Eq) ([]*models.Attendance, error) {
	sql, args, err := r.sb.Select(attendanceColumns...).
		From("attendance").
		Where(where).
		OrderBy("date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying attendance")
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Attendance, 0)
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning attendance row: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// FindByStudentAndCourse returns a student's attendance in a course
func (r *AttendanceRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.Attendance, error) {
	return r.list(ctx, squirrel.Eq{"student_id": studentID, "course_id": courseID})
}

// FindByCourse returns all attendance in a course
func (r *AttendanceRepository) FindByCourse(ctx context.Context, courseID int64) ([]*models.Attendance, error) {
	return r.list(ctx, squirrel.Eq{"course_id": courseID})
}

// GetByID returns a record or ErrAttendanceNotFound
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*models.Attendance, error) {
	sql, args, err := r.sb.Select(attendanceColumns...).
		From("attendance").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get attendance query: %w", err)
	}

	a, err := scanAttendance(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAttendanceNotFound
		}
		logger.Error().Err(err).Int64("attendanceID", id).Msg("Error scanning attendance row")
		return nil, fmt.Errorf("error retrieving attendance: %w", err)
	}
	return a, nil
}

// Create inserts a record. A second record for the same day is ErrAttendanceExists.
func (r *AttendanceRepository) Create(ctx context.Context, a *models.Attendance) error {
	sql, args, err := r.sb.Insert("attendance").
		Columns("student_id", "course_id", "date", "status").
		Values(a.StudentID, a.CourseID, a.Date, a.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create attendance query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "attendance_student_id_course_id_date_key") {
			return apperrors.ErrAttendanceExists
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.NewResourceNotFoundError("student or course does not exist")
		}
		logger.Error().Err(err).Int64("studentID", a.StudentID).Int64("courseID", a.CourseID).Msg("Error executing create attendance query")
		return fmt.Errorf("error creating attendance: %w", err)
	}
	return nil
}

// UpdateStatus changes the status of a record
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id int64, status models.AttendanceStatus) error {
	sql, args, err := r.sb.Update("attendance").
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update attendance query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("attendanceID", id).Msg("Error executing update attendance query")
		return fmt.Errorf("error updating attendance: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrAttendanceNotFound
	}
	return nil
}
