package auth

import (
	"context"
	"fmt"

	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/logger"
)

// CourseFinder loads courses for ownership checks
type CourseFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// EnrollmentChecker answers whether a student belongs to a course
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
}

// CourseAccess is the result of a successful course authorization
type CourseAccess struct {
	Course  *models.Course
	Profile *models.Profile
}

// IsOwner reports whether the caller is the professor teaching the course
func (a *CourseAccess) IsOwner() bool {
	return a.Profile.Role == models.RoleProfessor && a.Course.ProfessorID == a.Profile.ID
}

// AuthorizationService decides what a principal may do with a course
type AuthorizationService struct {
	resolver    *IdentityResolver
	courses     CourseFinder
	enrollments EnrollmentChecker
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(resolver *IdentityResolver, courses CourseFinder, enrollments EnrollmentChecker) *AuthorizationService {
	return &AuthorizationService{
		resolver:    resolver,
		courses:     courses,
		enrollments: enrollments,
	}
}

// Resolver exposes the identity resolver used for the checks
func (s *AuthorizationService) Resolver() *IdentityResolver {
	return s.resolver
}

// RequireCourseOwner allows only the professor teaching the course
func (s *AuthorizationService) RequireCourseOwner(ctx context.Context, p Principal, courseID int64) (*CourseAccess, error) {
	if p.Role != models.RoleProfessor {
		return nil, apperrors.NewForbiddenError("only professors can perform this action")
	}

	access, err := s.load(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	if !access.IsOwner() {
		logger.Warn().Int64("accountID", p.AccountID).Int64("courseID", courseID).Msg("Professor does not own course")
		return nil, apperrors.NewForbiddenError("you do not teach this course")
	}
	return access, nil
}

// RequireCourseMember allows the owning professor or an enrolled student
func (s *AuthorizationService) RequireCourseMember(ctx context.Context, p Principal, courseID int64) (*CourseAccess, error) {
	access, err := s.load(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	switch p.Role {
	case models.RoleProfessor:
		if access.IsOwner() {
			return access, nil
		}
		return nil, apperrors.NewForbiddenError("you do not teach this course")
	case models.RoleStudent:
		enrolled, err := s.enrollments.IsEnrolled(ctx, access.Profile.ID, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if !enrolled {
			return nil, apperrors.NewCustomError(apperrors.ErrPermissionDenied, apperrors.ErrNotEnrolled.Error())
		}
		return access, nil
	default:
		return nil, apperrors.ErrPermissionDenied
	}
}

func (s *AuthorizationService) load(ctx context.Context, p Principal, courseID int64) (*CourseAccess, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	profile, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, err
	}

	return &CourseAccess{Course: course, Profile: profile}, nil
}
