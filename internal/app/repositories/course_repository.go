package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/dberrors"
	"github.com/yigit/acadtrack/internal/pkg/logger"
)

var courseColumns = []string{"c.id", "c.code", "c.name", "c.credits", "c.professor_id", "c.term", "c.created_at"}

// CourseRepository handles course and enrollment rows
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var c models.Course
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Credits, &c.ProfessorID, &c.Term, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) queryCourses(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Course, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build course list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying courses")
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// FindByID returns a course or ErrCourseNotFound
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return course, nil
}

// FindByProfessor lists courses owned by a professor
func (r *CourseRepository) FindByProfessor(ctx context.Context, professorID int64) ([]*models.Course, error) {
	return r.queryCourses(ctx, r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.professor_id": professorID}).
		OrderBy("c.code"))
}

// FindByStudent lists the courses a student is enrolled in
func (r *CourseRepository) FindByStudent(ctx context.Context, studentID int64) ([]*models.Course, error) {
	return r.queryCourses(ctx, r.sb.Select(courseColumns...).
		From("courses c").
		Join("enrollments e ON e.course_id = c.id").
		Where(squirrel.Eq{"e.student_id": studentID}).
		OrderBy("c.code"))
}

// ListIDs returns every course id, used by the nightly sweep
func (r *CourseRepository) ListIDs(ctx context.Context) ([]int64, error) {
	sql, args, err := r.sb.Select("id").From("courses").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list course ids query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing course ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// Create inserts a course and fills in ID
func (r *CourseRepository) Create(ctx context.Context, c *models.Course) error {
	sql, args, err := r.sb.Insert("courses").
		Columns("code", "name", "credits", "professor_id", "term").
		Values(c.Code, c.Name, c.Credits, c.ProfessorID, c.Term).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_code_professor_id_key") {
			return apperrors.NewConflictError(fmt.Sprintf("course %s already exists for this professor", c.Code))
		}
		logger.Error().Err(err).Str("code", c.Code).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// EnrollmentRepository handles the student/course join table
type EnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create enrolls a student. A second enrollment for the pair is ErrAlreadyEnrolled.
func (r *EnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	sql, args, err := r.sb.Insert("enrollments").
		Columns("student_id", "course_id").
		Values(e.StudentID, e.CourseID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "enrollments_student_id_course_id_key") {
			return apperrors.ErrAlreadyEnrolled
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrProfileNotFound
		}
		logger.Error().Err(err).Int64("studentID", e.StudentID).Int64("courseID", e.CourseID).Msg("Error executing create enrollment query")
		return fmt.Errorf("error creating enrollment: %w", err)
	}
	return nil
}

// FindByCourse lists enrollments of a course with the student attached
func (r *EnrollmentRepository) FindByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	sql, args, err := r.sb.Select("e.id", "e.student_id", "e.course_id", "e.created_at",
		"s.name", "s.email", "s.student_code").
		From("enrollments e").
		Join("students s ON s.id = e.student_id").
		Where(squirrel.Eq{"e.course_id": courseID}).
		OrderBy("s.name", "e.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error querying enrollments")
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0)
	for rows.Next() {
		e := &models.Enrollment{Student: &models.Student{}}
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.CreatedAt,
			&e.Student.Name, &e.Student.Email, &e.Student.StudentCode); err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		e.Student.ID = e.StudentID
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// IsEnrolled reports whether the pair exists
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("enrollments").
		Where(squirrel.Eq{"student_id": studentID, "course_id": courseID}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build enrollment exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Error checking enrollment")
		return false, fmt.Errorf("error checking enrollment: %w", err)
	}
	return exists, nil
}
