// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/app/repositories"
	"github.com/yigit/acadtrack/internal/app/services"
	"github.com/yigit/acadtrack/internal/middleware"
	"github.com/yigit/acadtrack/internal/pkg/helpers"
	"github.com/yigit/acadtrack/internal/pkg/websocket"
)

// The interfaces below are implemented by the services package

// AuthService is used by AuthController
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*models.Account, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, p auth.Principal) (*dto.MeResponse, error)
}

// EnrollmentService is used by CourseController
type EnrollmentService interface {
	Enroll(ctx context.Context, p auth.Principal, courseID, studentID int64) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, p auth.Principal, courseID int64) ([]*models.Enrollment, error)
	MyCourses(ctx context.Context, p auth.Principal) ([]*models.Course, error)
}

// GradeService is used by GradeController
type GradeService interface {
	CreateGrade(ctx context.Context, p auth.Principal, courseID int64, req *dto.CreateGradeRequest) (*models.Grade, error)
	UpdateGrade(ctx context.Context, p auth.Principal, gradeID int64, req *dto.UpdateGradeRequest) (*models.Grade, error)
	UpdateGradeByTitle(ctx context.Context, p auth.Principal, courseID int64, req *dto.UpdateGradeByTitleRequest) (*models.Grade, error)
	ListCourseGrades(ctx context.Context, p auth.Principal, courseID int64) ([]*models.Grade, error)
	ListStudentGrades(ctx context.Context, p auth.Principal, studentID, courseID int64) ([]*models.Grade, error)
}

// AttendanceService is used by AttendanceController
type AttendanceService interface {
	RecordAttendance(ctx context.Context, p auth.Principal, courseID int64, req *dto.RecordAttendanceRequest) (*models.Attendance, error)
	UpdateAttendance(ctx context.Context, p auth.Principal, attendanceID int64, req *dto.UpdateAttendanceRequest) (*models.Attendance, error)
	ListCourseAttendance(ctx context.Context, p auth.Principal, courseID int64) ([]*models.Attendance, error)
}

// RiskService is used by RiskController
type RiskService interface {
	StudentRiskFor(ctx context.Context, p auth.Principal, courseID, studentID int64) (*dto.StudentRiskResponse, error)
	RunCourseCheckFor(ctx context.Context, p auth.Principal, courseID int64) (*dto.RiskCheckResponse, error)
}

// NotificationService is used by NotificationController
type NotificationService interface {
	ListFor(ctx context.Context, p auth.Principal, opts repositories.NotificationListOptions) ([]*models.Notification, int64, error)
	UnreadCountFor(ctx context.Context, p auth.Principal) (int64, error)
	MarkReadFor(ctx context.Context, p auth.Principal, id int64) error
	MarkAllReadFor(ctx context.Context, p auth.Principal) (int64, error)
	DeleteFor(ctx context.Context, p auth.Principal, id int64) error
	RecipientFor(ctx context.Context, p auth.Principal) (websocket.Recipient, error)
}

var (
	_ AuthService         = (*services.AuthService)(nil)
	_ EnrollmentService   = (*services.EnrollmentService)(nil)
	_ GradeService        = (*services.GradeService)(nil)
	_ AttendanceService   = (*services.AttendanceService)(nil)
	_ RiskService         = (*services.RiskService)(nil)
	_ NotificationService = (*services.NotificationService)(nil)
)

// principal returns the authenticated caller or writes a 401
func principal(ctx *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	}
	return p, ok
}

// pathID parses a positive id path parameter or writes a 400
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := helpers.ParseIDParam(ctx, name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return 0, false
	}
	return id, true
}
