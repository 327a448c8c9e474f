package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/helpers"
)

func errNotEnrolled(studentID, courseID int64) error {
	return apperrors.NewCustomError(apperrors.ErrNotEnrolled,
		fmt.Sprintf("student %d is not enrolled in course %d", studentID, courseID))
}

func formatPoints(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// GradeService records grades. Every write is followed by a grade
// notification and a risk evaluation, both detached from the request.
type GradeService struct {
	grades        GradeStore
	enrollments   EnrollmentStore
	authz         *auth.AuthorizationService
	notifications *NotificationService
	risk          *RiskService
	background    *Background
	logger        zerolog.Logger
}

// NewGradeService creates a new GradeService
func NewGradeService(
	grades GradeStore,
	enrollments EnrollmentStore,
	authz *auth.AuthorizationService,
	notifications *NotificationService,
	risk *RiskService,
	background *Background,
	logger zerolog.Logger,
) *GradeService {
	return &GradeService{
		grades:        grades,
		enrollments:   enrollments,
		authz:         authz,
		notifications: notifications,
		risk:          risk,
		background:    background,
		logger:        logger,
	}
}

// CreateGrade records a grade in a course the caller teaches
func (s *GradeService) CreateGrade(ctx context.Context, p auth.Principal, courseID int64, req *dto.CreateGradeRequest) (*models.Grade, error) {
	access, err := s.authz.RequireCourseOwner(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, req.StudentID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, errNotEnrolled(req.StudentID, courseID)
	}

	date, err := helpers.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD")
	}

	grade := &models.Grade{
		StudentID:       req.StudentID,
		CourseID:        courseID,
		AssessmentType:  req.AssessmentType,
		AssessmentTitle: req.AssessmentTitle,
		Score:           req.Score,
		MaxPoints:       req.MaxPoints,
		Date:            date,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("gradeID", grade.ID).Int64("studentID", grade.StudentID).Int64("courseID", courseID).Msg("Grade created")
	s.afterWrite(access.Course, grade, "New Grade Posted")
	return grade, nil
}

// UpdateGrade applies a partial update to a grade
func (s *GradeService) UpdateGrade(ctx context.Context, p auth.Principal, gradeID int64, req *dto.UpdateGradeRequest) (*models.Grade, error) {
	grade, err := s.grades.GetByID(ctx, gradeID)
	if err != nil {
		return nil, err
	}

	access, err := s.authz.RequireCourseOwner(ctx, p, grade.CourseID)
	if err != nil {
		return nil, err
	}

	if req.AssessmentType != nil {
		grade.AssessmentType = *req.AssessmentType
	}
	if req.AssessmentTitle != nil {
		grade.AssessmentTitle = *req.AssessmentTitle
	}
	if req.Score != nil {
		grade.Score = req.Score
	}
	if req.MaxPoints != nil {
		grade.MaxPoints = req.MaxPoints
	}
	if req.Date != nil {
		date, err := helpers.ParseDate(*req.Date)
		if err != nil {
			return nil, apperrors.NewValidationError("date must be formatted as YYYY-MM-DD")
		}
		grade.Date = date
	}

	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, err
	}

	s.afterWrite(access.Course, grade, "Grade Updated")
	return grade, nil
}

// UpdateGradeByTitle updates the student's newest grade carrying the title
func (s *GradeService) UpdateGradeByTitle(ctx context.Context, p auth.Principal, courseID int64, req *dto.UpdateGradeByTitleRequest) (*models.Grade, error) {
	access, err := s.authz.RequireCourseOwner(ctx, p, courseID)
	if err != nil {
		return nil, err
	}

	grade, err := s.grades.FindByStudentCourseTitle(ctx, req.StudentID, courseID, req.AssessmentTitle)
	if err != nil {
		return nil, err
	}

	if req.Score != nil {
		grade.Score = req.Score
	}
	if req.MaxPoints != nil {
		grade.MaxPoints = req.MaxPoints
	}
	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, err
	}

	s.afterWrite(access.Course, grade, "Grade Updated")
	return grade, nil
}

// ListCourseGrades returns every grade for the owning professor and only the
// caller's own grades for a student
func (s *GradeService) ListCourseGrades(ctx context.Context, p auth.Principal, courseID int64) ([]*models.Grade, error) {
	access, err := s.authz.RequireCourseMember(ctx, p, courseID)
	if err != nil {
		return nil, err
	}
	if access.IsOwner() {
		return s.grades.FindByCourse(ctx, courseID)
	}
	return s.grades.FindByStudentAndCourse(ctx, access.Profile.ID, courseID)
}

// ListStudentGrades returns one student's grades. A student caller always
// gets their own grades whatever id the path names.
func (s *GradeService) ListStudentGrades(ctx context.Context, p auth.Principal, studentID, courseID int64) ([]*models.Grade, error) {
	if p.Role == models.RoleProfessor {
		if _, err := s.authz.RequireCourseOwner(ctx, p, courseID); err != nil {
			return nil, err
		}
		return s.grades.FindByStudentAndCourse(ctx, studentID, courseID)
	}

	access, err := s.authz.RequireCourseMember(ctx, p, courseID)
	if err != nil {
		return nil, err
	}
	studentID = s.authz.Resolver().Reconcile(p, access.Profile, studentID)
	return s.grades.FindByStudentAndCourse(ctx, studentID, courseID)
}

func (s *GradeService) afterWrite(course *models.Course, grade *models.Grade, heading string) {
	courseID, gradeID := course.ID, grade.ID
	title := fmt.Sprintf("%s: %s", course.DisplayName(), heading)
	message := fmt.Sprintf("%s (%s): %s / %s", grade.AssessmentTitle, grade.AssessmentType,
		formatPoints(grade.Score), formatPoints(grade.MaxPoints))

	s.background.Go("grade-notification", func(ctx context.Context) error {
		_, err := s.notifications.Create(ctx, grade.StudentID, models.RoleStudent, models.NotificationGrade,
			title, message, models.NotificationLinks{CourseID: &courseID, GradeID: &gradeID})
		return err
	})
	s.risk.CheckAndNotifyAfterGradeChange(grade.StudentID, course.ID)
}
