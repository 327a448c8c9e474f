package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
)

// EnrollmentService manages course membership
type EnrollmentService struct {
	enrollments   EnrollmentStore
	students      StudentStore
	courses       CourseStore
	authz         *auth.AuthorizationService
	notifications *NotificationService
	background    *Background
	logger        zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	enrollments EnrollmentStore,
	students StudentStore,
	courses CourseStore,
	authz *auth.AuthorizationService,
	notifications *NotificationService,
	background *Background,
	logger zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments:   enrollments,
		students:      students,
		courses:       courses,
		authz:         authz,
		notifications: notifications,
		background:    background,
		logger:        logger,
	}
}

// Enroll adds a student to a course the caller teaches
func (s *EnrollmentService) Enroll(ctx context.Context, p auth.Principal, courseID, studentID int64) (*models.Enrollment, error) {
	access, err := s.authz.RequireCourseOwner(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProfileNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrProfileNotFound, fmt.Sprintf("student %d not found", studentID))
		}
		return nil, err
	}

	enrollment := &models.Enrollment{StudentID: student.ID, CourseID: courseID}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, err
	}
	enrollment.Student = student
	enrollment.Course = access.Course

	s.logger.Info().Int64("studentID", studentID).Int64("courseID", courseID).Msg("Student enrolled")

	course := access.Course
	enrollmentID := enrollment.ID
	s.background.Go("enrollment-notification", func(ctx context.Context) error {
		_, err := s.notifications.Create(ctx, student.ID, models.RoleStudent, models.NotificationEnrollment,
			course.DisplayName()+": Enrolled",
			fmt.Sprintf("You have been enrolled in %s.", course.DisplayName()),
			models.NotificationLinks{CourseID: &course.ID, EnrollmentID: &enrollmentID})
		return err
	})

	return enrollment, nil
}

// ListEnrollments lists the students of a course the caller teaches
func (s *EnrollmentService) ListEnrollments(ctx context.Context, p auth.Principal, courseID int64) ([]*models.Enrollment, error) {
	if _, err := s.authz.RequireCourseOwner(ctx, p, courseID); err != nil {
		return nil, err
	}
	return s.enrollments.FindByCourse(ctx, courseID)
}

// MyCourses returns enrolled courses for a student and taught courses for a
// professor. A caller without a profile has no courses.
func (s *EnrollmentService) MyCourses(ctx context.Context, p auth.Principal) ([]*models.Course, error) {
	profile, err := s.authz.Resolver().Resolve(ctx, p)
	if err != nil {
		if errors.Is(err, apperrors.ErrProfileNotFound) {
			return []*models.Course{}, nil
		}
		return nil, err
	}

	if profile.Role == models.RoleProfessor {
		return s.courses.FindByProfessor(ctx, profile.ID)
	}
	return s.courses.FindByStudent(ctx, profile.ID)
}
