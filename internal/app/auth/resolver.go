package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/logger"
	"github.com/yigit/acadtrack/internal/pkg/validation"
)

// Principal is the authenticated caller as derived from the access token.
// It is passed explicitly to every operation that acts on behalf of a user.
type Principal struct {
	AccountID int64
	Role      models.Role
	Email     string
	ProfileID *int64
}

// StudentFinder is the subset of the student store used for resolution.
// Every method returns apperrors.ErrProfileNotFound when nothing matches.
type StudentFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindByStudentCode(ctx context.Context, code string) (*models.Student, error)
}

// ProfessorFinder is the subset of the professor store used for resolution
type ProfessorFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Professor, error)
	FindByEmail(ctx context.Context, email string) (*models.Professor, error)
}

// lookup is one resolution strategy. It returns ErrProfileNotFound when it
// does not apply or finds nothing; any other error aborts resolution.
type lookup struct {
	name string
	find func(ctx context.Context, p Principal) (*models.Profile, error)
}

// IdentityResolver maps a principal to its Student or Professor row
type IdentityResolver struct {
	students   StudentFinder
	professors ProfessorFinder
	log        zerolog.Logger
}

// NewIdentityResolver creates a resolver over the profile stores
func NewIdentityResolver(students StudentFinder, professors ProfessorFinder) *IdentityResolver {
	return &IdentityResolver{
		students:   students,
		professors: professors,
		log:        logger.Component("identity"),
	}
}

func (r *IdentityResolver) strategies(role models.Role) []lookup {
	switch role {
	case models.RoleStudent:
		return []lookup{
			{"profile_link", r.studentByLink},
			{"email", r.studentByEmail},
			{"student_code", r.studentByCode},
		}
	case models.RoleProfessor:
		return []lookup{
			{"profile_link", r.professorByLink},
			{"email", r.professorByEmail},
		}
	default:
		return nil
	}
}

// Resolve returns the profile for p. The first strategy that matches wins.
// apperrors.ErrProfileNotFound means no strategy matched; other errors are
// store failures.
func (r *IdentityResolver) Resolve(ctx context.Context, p Principal) (*models.Profile, error) {
	for _, s := range r.strategies(p.Role) {
		profile, err := s.find(ctx, p)
		if err == nil {
			r.log.Debug().Int64("accountID", p.AccountID).Str("strategy", s.name).Int64("profileID", profile.ID).Msg("Resolved profile")
			return profile, nil
		}
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			return nil, err
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

// ResolveTarget resolves the caller and reconciles it with a client supplied
// profile id. The resolved id always wins; a disagreeing requested id is
// logged and replaced. requestedID 0 means none was supplied.
func (r *IdentityResolver) ResolveTarget(ctx context.Context, p Principal, requestedID int64) (int64, error) {
	profile, err := r.Resolve(ctx, p)
	if err != nil {
		return 0, err
	}
	return r.Reconcile(p, profile, requestedID), nil
}

// Reconcile applies the ResolveTarget rule to an already resolved profile
func (r *IdentityResolver) Reconcile(p Principal, profile *models.Profile, requestedID int64) int64 {
	if requestedID != 0 && requestedID != profile.ID {
		r.log.Warn().
			Int64("accountID", p.AccountID).
			Int64("requestedID", requestedID).
			Int64("resolvedID", profile.ID).
			Msg("Requested profile id does not match authenticated identity, using resolved id")
	}
	return profile.ID
}

func (r *IdentityResolver) studentByLink(ctx context.Context, p Principal) (*models.Profile, error) {
	if p.ProfileID == nil {
		return nil, apperrors.ErrProfileNotFound
	}
	s, err := r.students.FindByID(ctx, *p.ProfileID)
	if err != nil {
		return nil, err
	}
	return models.ProfileFromStudent(s), nil
}

func (r *IdentityResolver) studentByEmail(ctx context.Context, p Principal) (*models.Profile, error) {
	if strings.TrimSpace(p.Email) == "" {
		return nil, apperrors.ErrProfileNotFound
	}
	s, err := r.students.FindByEmail(ctx, strings.TrimSpace(p.Email))
	if err != nil {
		return nil, err
	}
	return models.ProfileFromStudent(s), nil
}

func (r *IdentityResolver) studentByCode(ctx context.Context, p Principal) (*models.Profile, error) {
	code, ok := StudentCodeFromEmail(p.Email)
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	s, err := r.students.FindByStudentCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return models.ProfileFromStudent(s), nil
}

func (r *IdentityResolver) professorByLink(ctx context.Context, p Principal) (*models.Profile, error) {
	if p.ProfileID == nil {
		return nil, apperrors.ErrProfileNotFound
	}
	prof, err := r.professors.FindByID(ctx, *p.ProfileID)
	if err != nil {
		return nil, err
	}
	return models.ProfileFromProfessor(prof), nil
}

func (r *IdentityResolver) professorByEmail(ctx context.Context, p Principal) (*models.Profile, error) {
	if strings.TrimSpace(p.Email) == "" {
		return nil, apperrors.ErrProfileNotFound
	}
	prof, err := r.professors.FindByEmail(ctx, strings.TrimSpace(p.Email))
	if err != nil {
		return nil, err
	}
	return models.ProfileFromProfessor(prof), nil
}

// StudentCodeFromEmail extracts the institutional student code from an email
// of the form "first.last.141715.tc@school.edu": the last dot-separated
// segment of the local part that consists only of digits.
func StudentCodeFromEmail(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "", false
	}
	segments := strings.Split(email[:at], ".")
	for i := len(segments) - 1; i >= 0; i-- {
		if validation.IsStudentCode(segments[i]) {
			return segments[i], true
		}
	}
	return "", false
}
