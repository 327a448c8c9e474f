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

var gradeColumns = []string{
	"id", "student_id", "course_id", "assessment_type", "assessment_title",
	"score", "max_points", "date", "created_at", "updated_at",
}

// GradeRepository handles grade rows
type GradeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewGradeRepository creates a new GradeRepository
func NewGradeRepository(db *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanGrade(row pgx.Row) (*models.Grade, error) {
	var g models.Grade
	err := row.Scan(&g.ID, &g.StudentID, &g.CourseID, &g.AssessmentType, &g.AssessmentTitle,
		&g.Score, &g.MaxPoints, &g.Date, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GradeRepository) list(ctx context.Context, where squirrel.Eq) ([]*models.Grade, error) {
	sql, args, err := r.sb.Select(gradeColumns...).
		From("grades").
		Where(where).
		OrderBy("date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list grades query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying grades")
		return nil, fmt.Errorf("error listing grades: %w", err)
	}
	defer rows.Close()

	grades := make([]*models.Grade, 0)
	for rows.Next() {
		g, err := scanGrade(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning grade row: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// FindByStudentAndCourse returns every grade row of a student in a course
func (r *GradeRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.Grade, error) {
	return r.list(ctx, squirrel.Eq{"student_id": studentID, "course_id": courseID})
}

// FindByCourse returns every grade row in a course, for any student
func (r *GradeRepository) FindByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error) {
	return r.list(ctx, squirrel.Eq{"course_id": courseID})
}

// GetByID returns a grade or ErrGradeNotFound
func (r *GradeRepository) GetByID(ctx context.Context, id int64) (*models.Grade, error) {
	sql, args, err := r.sb.Select(gradeColumns...).
		From("grades").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get grade query: %w", err)
	}

	g, err := scanGrade(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGradeNotFound
		}
		logger.Error().Err(err).Int64("gradeID", id).Msg("Error scanning grade row")
		return nil, fmt.Errorf("error retrieving grade: %w", err)
	}
	return g, nil
}

// FindByStudentCourseTitle returns the most recent grade with a matching title.
// Titles are not unique, so the newest row is the one updated by title.
func (r *GradeRepository) FindByStudentCourseTitle(ctx context.Context, studentID, courseID int64, title string) (*models.Grade, error) {
	sql, args, err := r.sb.Select(gradeColumns...).
		From("grades").
		Where(squirrel.Eq{"student_id": studentID, "course_id": courseID, "assessment_title": title}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get grade by title query: %w", err)
	}

	g, err := scanGrade(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrGradeNotFound
		}
		return nil, fmt.Errorf("error retrieving grade by title: %w", err)
	}
	return g, nil
}

// Create inserts a grade and fills in ID and timestamps
func (r *GradeRepository) Create(ctx context.Context, g *models.Grade) error {
	sql, args, err := r.sb.Insert("grades").
		Columns("student_id", "course_id", "assessment_type", "assessment_title", "score", "max_points", "date").
		Values(g.StudentID, g.CourseID, g.AssessmentType, g.AssessmentTitle, g.Score, g.MaxPoints, g.Date).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create grade query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.NewResourceNotFoundError("student or course does not exist")
		}
		logger.Error().Err(err).Int64("studentID", g.StudentID).Int64("courseID", g.CourseID).Msg("Error executing create grade query")
		return fmt.Errorf("error creating grade: %w", err)
	}
	return nil
}

// Update writes every mutable column of g
func (r *GradeRepository) Update(ctx context.Context, g *models.Grade) error {
	g.UpdatedAt = time.Now()
	sql, args, err := r.sb.Update("grades").
		Set("assessment_type", g.AssessmentType).
		Set("assessment_title", g.AssessmentTitle).
		Set("score", g.Score).
		Set("max_points", g.MaxPoints).
		Set("date", g.Date).
		Set("updated_at", g.UpdatedAt).
		Where(squirrel.Eq{"id": g.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update grade query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("gradeID", g.ID).Msg("Error executing update grade query")
		return fmt.Errorf("error updating grade: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrGradeNotFound
	}
	return nil
}
