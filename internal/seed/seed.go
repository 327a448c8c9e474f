package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/repositories"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	pkgauth "github.com/yigit/acadtrack/internal/pkg/auth"
)

// DemoPassword is the password of every seeded account
const DemoPassword = "Password123"

const (
	demoProfessorEmail = "maria.santos@school.edu"
	demoStudentEmail   = "ana.cruz@school.edu"
)

// CreateDefaultData inserts a professor, a student, one course and the
// enrollment between them, plus a login account for each profile. It is a
// no-op when the demo professor already exists.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	repos := repositories.NewRepositories(dbPool)

	if _, err := repos.ProfessorRepository.FindByEmail(ctx, demoProfessorEmail); err == nil {
		lgr.Info().Msg("Demo data already present, skipping seed")
		return nil
	} else if !errors.Is(err, apperrors.ErrProfileNotFound) {
		return fmt.Errorf("check demo professor: %w", err)
	}

	lgr.Info().Msg("Creating demo data...")

	department := "Computer Science"
	professor := &models.Professor{Name: "Maria Santos", Email: demoProfessorEmail, Department: &department}
	if err := repos.ProfessorRepository.Create(ctx, professor); err != nil {
		return fmt.Errorf("create demo professor: %w", err)
	}

	code := "141715"
	student := &models.Student{Name: "Ana Cruz", Email: demoStudentEmail, Department: &department, StudentCode: &code}
	if err := repos.StudentRepository.Create(ctx, student); err != nil {
		return fmt.Errorf("create demo student: %w", err)
	}

	course := &models.Course{Code: "CS101", Name: "Intro to Computing", Credits: 3, ProfessorID: professor.ID, Term: models.TermFall}
	if err := repos.CourseRepository.Create(ctx, course); err != nil {
		return fmt.Errorf("create demo course: %w", err)
	}

	enrollment := &models.Enrollment{StudentID: student.ID, CourseID: course.ID}
	if err := repos.EnrollmentRepository.Create(ctx, enrollment); err != nil && !errors.Is(err, apperrors.ErrAlreadyEnrolled) {
		return fmt.Errorf("create demo enrollment: %w", err)
	}

	hash, err := pkgauth.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	var finalErr error
	accounts := []*models.Account{
		{Email: demoProfessorEmail, Password: hash, Role: models.RoleProfessor, ProfileID: &professor.ID, IsActive: true},
		{Email: demoStudentEmail, Password: hash, Role: models.RoleStudent, ProfileID: &student.ID, IsActive: true},
	}
	for _, account := range accounts {
		if _, err := repos.AccountRepository.Create(ctx, account); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Str("email", account.Email).Msg("Error creating demo account")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().
		Int64("professorID", professor.ID).
		Int64("studentID", student.ID).
		Int64("courseID", course.ID).
		Msg("Demo data created")
	return finalErr
}
