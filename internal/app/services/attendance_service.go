package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/helpers"
)

// AttendanceService records daily attendance
type AttendanceService struct {
	attendance    AttendanceStore
	enrollments   EnrollmentStore
	authz         *auth.AuthorizationService
	notifications *NotificationService
	risk          *RiskService
	background    *Background
	logger        zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(
	attendance AttendanceStore,
	enrollments EnrollmentStore,
	authz *auth.AuthorizationService,
	notifications *NotificationService,
	risk *RiskService,
	background *Background,
	logger zerolog.Logger,
) *AttendanceService {
	return &AttendanceService{
		attendance:    attendance,
		enrollments:   enrollments,
		authz:         authz,
		notifications: notifications,
		risk:          risk,
		background:    background,
		logger:        logger,
	}
}

// RecordAttendance stores a student's status for a day. A second record for
// the same day fails with apperrors.ErrAttendanceExists.
func (s *AttendanceService) RecordAttendance(ctx context.Context, p auth.Principal, courseID int64, req *dto.RecordAttendanceRequest) (*models.Attendance, error) {
	if !req.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid attendance status %q", req.Status))
	}

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

	record := &models.Attendance{
		StudentID: req.StudentID,
		CourseID:  courseID,
		Date:      date,
		Status:    req.Status,
	}
	if err := s.attendance.Create(ctx, record); err != nil {
		return nil, err
	}

	s.afterWrite(access.Course, record)
	return record, nil
}

// UpdateAttendance changes the status of an existing record
func (s *AttendanceService) UpdateAttendance(ctx context.Context, p auth.Principal, attendanceID int64, req *dto.UpdateAttendanceRequest) (*models.Attendance, error) {
	if !req.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid attendance status %q", req.Status))
	}

	record, err := s.attendance.GetByID(ctx, attendanceID)
	if err != nil {
		return nil, err
	}

	access, err := s.authz.RequireCourseOwner(ctx, p, record.CourseID)
	if err != nil {
		return nil, err
	}

	if err := s.attendance.UpdateStatus(ctx, attendanceID, req.Status); err != nil {
		return nil, err
	}
	record.Status = req.Status

	s.afterWrite(access.Course, record)
	return record, nil
}

// ListCourseAttendance returns all records for the owning professor and the
// caller's own records for a student
func (s *AttendanceService) ListCourseAttendance(ctx context.Context, p auth.Principal, courseID int64) ([]*models.Attendance, error) {
	access, err := s.authz.RequireCourseMember(ctx, p, courseID)
	if err != nil {
		return nil, err
	}
	if access.IsOwner() {
		return s.attendance.FindByCourse(ctx, courseID)
	}
	return s.attendance.FindByStudentAndCourse(ctx, access.Profile.ID, courseID)
}

// afterWrite notifies the student about absences and late arrivals and
// re-evaluates risk
func (s *AttendanceService) afterWrite(course *models.Course, record *models.Attendance) {
	if record.Status == models.AttendanceAbsent || record.Status == models.AttendanceLate {
		courseID, attendanceID := course.ID, record.ID
		label := "Absent"
		if record.Status == models.AttendanceLate {
			label = "Late"
		}
		title := fmt.Sprintf("%s: Marked %s", course.DisplayName(), label)
		message := fmt.Sprintf("You were marked %s on %s.", record.Status, record.Date.Format(helpers.DateLayout))

		s.background.Go("attendance-notification", func(ctx context.Context) error {
			_, err := s.notifications.Create(ctx, record.StudentID, models.RoleStudent, models.NotificationAttendance,
				title, message, models.NotificationLinks{CourseID: &courseID, AttendanceID: &attendanceID})
			return err
		})
	}
	s.risk.CheckAndNotifyAfterGradeChange(record.StudentID, course.ID)
}
