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
	"github.com/yigit/acadtrack/internal/pkg/logger"
)

var studentColumns = []string{
	"id", "external_identifier", "name", "email", "department", "photo",
	"student_code", "created_at", "updated_at",
}

var professorColumns = []string{
	"id", "external_identifier", "name", "email", "department", "photo",
	"created_at", "updated_at",
}

// StudentRepository reads and writes student profiles
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.ExternalIdentifier, &s.Name, &s.Email, &s.Department,
		&s.Photo, &s.StudentCode, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepository) findOne(ctx context.Context, pred interface{}, args ...interface{}) (*models.Student, error) {
	sql, sqlArgs, err := r.sb.Select(studentColumns...).
		From("students").
		Where(pred, args...).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building find student SQL")
		return nil, fmt.Errorf("failed to build find student query: %w", err)
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, sqlArgs...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProfileNotFound
		}
		logger.Error().Err(err).Msg("Error scanning student row")
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return student, nil
}

// FindByID returns the student with the given id
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByEmail matches email case-insensitively. Emails are not unique, the
// lowest id wins.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

// FindByStudentCode returns the student holding an institutional code
func (r *StudentRepository) FindByStudentCode(ctx context.Context, code string) (*models.Student, error) {
	return r.findOne(ctx, squirrel.Eq{"student_code": code})
}

// Create inserts a student profile and fills in ID
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("external_identifier", "name", "email", "department", "photo", "student_code").
		Values(s.ExternalIdentifier, s.Name, s.Email, s.Department, s.Photo, s.StudentCode).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("email", s.Email).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// ProfessorRepository reads and writes professor profiles
type ProfessorRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProfessorRepository creates a new ProfessorRepository
func NewProfessorRepository(db *pgxpool.Pool) *ProfessorRepository {
	return &ProfessorRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ProfessorRepository) findOne(ctx context.Context, pred interface{}, args ...interface{}) (*models.Professor, error) {
	sql, sqlArgs, err := r.sb.Select(professorColumns...).
		From("professors").
		Where(pred, args...).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building find professor SQL")
		return nil, fmt.Errorf("failed to build find professor query: %w", err)
	}

	var p models.Professor
	err = r.db.QueryRow(ctx, sql, sqlArgs...).Scan(&p.ID, &p.ExternalIdentifier, &p.Name, &p.Email,
		&p.Department, &p.Photo, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProfileNotFound
		}
		logger.Error().Err(err).Msg("Error scanning professor row")
		return nil, fmt.Errorf("error retrieving professor: %w", err)
	}
	return &p, nil
}

// FindByID returns the professor with the given id
func (r *ProfessorRepository) FindByID(ctx context.Context, id int64) (*models.Professor, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// FindByEmail matches email case-insensitively
func (r *ProfessorRepository) FindByEmail(ctx context.Context, email string) (*models.Professor, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER(?)", email)
}

// Create inserts a professor profile and fills in ID
func (r *ProfessorRepository) Create(ctx context.Context, p *models.Professor) error {
	sql, args, err := r.sb.Insert("professors").
		Columns("external_identifier", "name", "email", "department", "photo").
		Values(p.ExternalIdentifier, p.Name, p.Email, p.Department, p.Photo).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create professor query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("email", p.Email).Msg("Error executing create professor query")
		return fmt.Errorf("error creating professor: %w", err)
	}
	return nil
}
