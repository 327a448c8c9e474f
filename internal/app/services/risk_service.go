package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/models/dto"
)

// RiskReason says which metric put a student at risk
type RiskReason string

const (
	RiskReasonNone       RiskReason = ""
	RiskReasonBoth       RiskReason = "both"
	RiskReasonGrades     RiskReason = "grades"
	RiskReasonAttendance RiskReason = "attendance"
)

// RiskPolicy holds the configurable evaluation constants
type RiskPolicy struct {
	// Threshold is the minimum acceptable percentage for both metrics
	Threshold float64
	// SingleCooldown suppresses duplicates after a single grade or attendance change
	SingleCooldown time.Duration
	// BulkCooldown suppresses duplicates during a course scan; <= 0 means any
	// existing notification suppresses a new one
	BulkCooldown time.Duration
}

// DefaultRiskPolicy returns 75% with a 7 day single cooldown and an unbounded bulk lookback
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		Threshold:      75,
		SingleCooldown: 7 * 24 * time.Hour,
		BulkCooldown:   0,
	}
}

// RiskStatus is the outcome of evaluating one (student, course) pair
type RiskStatus struct {
	IsAtRisk       bool
	Reason         RiskReason
	AverageGrade   *float64
	AttendanceRate *float64
	HasGrades      bool
	HasAttendance  bool
}

// BulkCheckResult counts a course-wide scan
type BulkCheckResult struct {
	Checked  int
	Notified int
}

// gradeAverage is 100*sum(score)/sum(max_points) over rows that have both.
// ok is false when no row contributes a positive max.
func gradeAverage(grades []*models.Grade) (avg float64, usable int, ok bool) {
	var sumScore, sumMax float64
	for _, g := range grades {
		if !g.Usable() {
			continue
		}
		usable++
		sumScore += *g.Score
		sumMax += *g.MaxPoints
	}
	if sumMax <= 0 {
		return 0, usable, false
	}
	return 100 * sumScore / sumMax, usable, true
}

// attendanceRate is 100*present/total over rows that carry a status
func attendanceRate(records []*models.Attendance) (rate float64, ok bool) {
	var present, total int
	for _, a := range records {
		if a.Status == "" {
			continue
		}
		total++
		if a.Status == models.AttendancePresent {
			present++
		}
	}
	if total == 0 {
		return 0, false
	}
	return 100 * float64(present) / float64(total), true
}

// RiskService evaluates academic risk and emits deduplicated notifications.
// The check-then-create sequence is not transactional; two concurrent
// triggers for the same pair may both notify.
type RiskService struct {
	grades        GradeStore
	attendance    AttendanceStore
	courses       CourseStore
	enrollments   EnrollmentStore
	notifications *NotificationService
	authz         *auth.AuthorizationService
	background    *Background
	policy        RiskPolicy
	logger        zerolog.Logger
}

// NewRiskService creates a new RiskService
func NewRiskService(
	grades GradeStore,
	attendance AttendanceStore,
	courses CourseStore,
	enrollments EnrollmentStore,
	notifications *NotificationService,
	authz *auth.AuthorizationService,
	background *Background,
	policy RiskPolicy,
	logger zerolog.Logger,
) *RiskService {
	if policy.Threshold <= 0 {
		policy.Threshold = DefaultRiskPolicy().Threshold
	}
	return &RiskService{
		grades:        grades,
		attendance:    attendance,
		courses:       courses,
		enrollments:   enrollments,
		notifications: notifications,
		authz:         authz,
		background:    background,
		policy:        policy,
		logger:        logger,
	}
}

func (s *RiskService) evaluate(ctx context.Context, studentID, courseID int64) (RiskStatus, error) {
	var status RiskStatus

	grades, err := s.grades.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return RiskStatus{}, fmt.Errorf("load grades: %w", err)
	}
	records, err := s.attendance.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return RiskStatus{}, fmt.Errorf("load attendance: %w", err)
	}

	gradeAtRisk := false
	avg, usable, ok := gradeAverage(grades)
	status.HasGrades = usable > 0
	if ok {
		status.AverageGrade = &avg
		gradeAtRisk = avg < s.policy.Threshold
	}

	attendanceAtRisk := false
	if rate, ok := attendanceRate(records); ok {
		status.HasAttendance = true
		status.AttendanceRate = &rate
		attendanceAtRisk = rate < s.policy.Threshold
	}

	switch {
	case gradeAtRisk && attendanceAtRisk:
		status.Reason = RiskReasonBoth
	case gradeAtRisk:
		status.Reason = RiskReasonGrades
	case attendanceAtRisk:
		status.Reason = RiskReasonAttendance
	}
	status.IsAtRisk = gradeAtRisk || attendanceAtRisk

	return status, nil
}

func (s *RiskService) notTaking(ctx context.Context, studentID, courseID int64) (bool, error) {
	courseGrades, err := s.grades.FindByCourse(ctx, courseID)
	if err != nil {
		return false, fmt.Errorf("load course grades: %w", err)
	}
	if len(courseGrades) == 0 {
		return false, nil
	}

	own, err := s.grades.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("load grades: %w", err)
	}
	for _, g := range own {
		if g.Usable() {
			return false, nil
		}
	}
	return true, nil
}

// CheckStudentAtRisk evaluates one student in one course. A read failure is
// logged and reported as not at risk.
func (s *RiskService) CheckStudentAtRisk(ctx context.Context, studentID, courseID int64) RiskStatus {
	status, err := s.evaluate(ctx, studentID, courseID)
	if err != nil {
		s.logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Risk evaluation failed, assuming not at risk")
		return RiskStatus{}
	}
	return status
}

// CheckStudentNotTakingAssessments reports whether the course has graded
// assessments while the student has none. A read failure yields false.
func (s *RiskService) CheckStudentNotTakingAssessments(ctx context.Context, studentID, courseID int64) bool {
	notTaking, err := s.notTaking(ctx, studentID, courseID)
	if err != nil {
		s.logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Not-taking check failed, assuming false")
		return false
	}
	return notTaking
}

// CheckAndNotifyAfterGradeChange schedules an evaluation of the pair with the
// single-change cooldown and returns immediately
func (s *RiskService) CheckAndNotifyAfterGradeChange(studentID, courseID int64) {
	s.background.Go("risk-check", func(ctx context.Context) error {
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			return fmt.Errorf("load course %d: %w", courseID, err)
		}
		_, err = s.evaluateAndNotify(ctx, course, studentID, s.policy.SingleCooldown)
		return err
	})
}

// CheckAndNotifyAtRiskStudents evaluates every enrolled student of a course
// with the bulk cooldown
func (s *RiskService) CheckAndNotifyAtRiskStudents(ctx context.Context, courseID int64) (BulkCheckResult, error) {
	var result BulkCheckResult

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return result, err
	}
	enrollments, err := s.enrollments.FindByCourse(ctx, courseID)
	if err != nil {
		return result, fmt.Errorf("load enrollments: %w", err)
	}

	for _, e := range enrollments {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.Checked++
		notified, err := s.evaluateAndNotify(ctx, course, e.StudentID, s.policy.BulkCooldown)
		if err != nil {
			s.logger.Error().Err(err).Int64("studentID", e.StudentID).Int64("courseID", courseID).Msg("Risk check failed for student")
			continue
		}
		if notified {
			result.Notified++
		}
	}

	s.logger.Info().
		Int64("courseID", courseID).
		Int("checked", result.Checked).
		Int("notified", result.Notified).
		Msg("Course risk check completed")
	return result, nil
}

// SweepAllCourses runs the bulk check over every course
func (s *RiskService) SweepAllCourses(ctx context.Context) (BulkCheckResult, error) {
	var total BulkCheckResult

	ids, err := s.courses.ListIDs(ctx)
	if err != nil {
		return total, fmt.Errorf("list courses: %w", err)
	}
	for _, id := range ids {
		r, err := s.CheckAndNotifyAtRiskStudents(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			s.logger.Error().Err(err).Int64("courseID", id).Msg("Course sweep failed")
			continue
		}
		total.Checked += r.Checked
		total.Notified += r.Notified
	}
	return total, nil
}

// evaluateAndNotify reports whether at least one notification was created.
// An evaluation error means nothing was sent.
func (s *RiskService) evaluateAndNotify(ctx context.Context, course *models.Course, studentID int64, cooldown time.Duration) (bool, error) {
	status, err := s.evaluate(ctx, studentID, course.ID)
	if err != nil {
		return false, err
	}

	notified := false
	if status.IsAtRisk {
		created, err := s.notifyOnce(ctx, course, studentID, models.NotificationAtRisk,
			course.DisplayName()+": Academic Deficiency Alert",
			s.atRiskMessage(course, status), cooldown)
		if err != nil {
			return false, err
		}
		notified = notified || created
	}

	notTaking, err := s.notTaking(ctx, studentID, course.ID)
	if err != nil {
		return notified, err
	}
	if notTaking {
		created, err := s.notifyOnce(ctx, course, studentID, models.NotificationNotTaking,
			course.DisplayName()+": Missing Assessments",
			fmt.Sprintf("Assessments have been graded in %s but none are recorded for you yet. Please contact your professor.", course.DisplayName()),
			cooldown)
		if err != nil {
			return notified, err
		}
		notified = notified || created
	}

	return notified, nil
}

func (s *RiskService) notifyOnce(ctx context.Context, course *models.Course, studentID int64, kind models.NotificationKind, title, message string, cooldown time.Duration) (bool, error) {
	existing, err := s.notifications.FindRecent(ctx, studentID, models.RoleStudent, course.ID, kind, cooldown)
	if err != nil {
		return false, fmt.Errorf("check existing %s notification: %w", kind, err)
	}
	if existing != nil {
		s.logger.Debug().
			Int64("studentID", studentID).
			Int64("courseID", course.ID).
			Str("kind", string(kind)).
			Int64("existingID", existing.ID).
			Msg("Recent notification exists, skipping")
		return false, nil
	}

	courseID := course.ID
	if _, err := s.notifications.Create(ctx, studentID, models.RoleStudent, kind, title, message,
		models.NotificationLinks{CourseID: &courseID}); err != nil {
		return false, fmt.Errorf("create %s notification: %w", kind, err)
	}
	return true, nil
}

func (s *RiskService) atRiskMessage(course *models.Course, status RiskStatus) string {
	var parts []string
	if status.Reason == RiskReasonGrades || status.Reason == RiskReasonBoth {
		parts = append(parts, fmt.Sprintf("your grade average is %.2f%%", *status.AverageGrade))
	}
	if status.Reason == RiskReasonAttendance || status.Reason == RiskReasonBoth {
		parts = append(parts, fmt.Sprintf("your attendance rate is %.2f%%", *status.AttendanceRate))
	}
	return fmt.Sprintf("In %s %s, below the required %.0f%%. Please reach out to your professor.",
		course.DisplayName(), strings.Join(parts, " and "), s.policy.Threshold)
}

// StudentRiskFor returns the risk view of a student for a caller who is
// either the owning professor or the student themself
func (s *RiskService) StudentRiskFor(ctx context.Context, p auth.Principal, courseID, studentID int64) (*dto.StudentRiskResponse, error) {
	if p.Role == models.RoleProfessor {
		if _, err := s.authz.RequireCourseOwner(ctx, p, courseID); err != nil {
			return nil, err
		}
		enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, courseID)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, errNotEnrolled(studentID, courseID)
		}
	} else {
		access, err := s.authz.RequireCourseMember(ctx, p, courseID)
		if err != nil {
			return nil, err
		}
		studentID = s.authz.Resolver().Reconcile(p, access.Profile, studentID)
	}

	status := s.CheckStudentAtRisk(ctx, studentID, courseID)
	return &dto.StudentRiskResponse{
		StudentID:            studentID,
		CourseID:             courseID,
		IsAtRisk:             status.IsAtRisk,
		Reason:               string(status.Reason),
		AverageGrade:         status.AverageGrade,
		AttendanceRate:       status.AttendanceRate,
		HasGrades:            status.HasGrades,
		HasAttendance:        status.HasAttendance,
		NotTakingAssessments: s.CheckStudentNotTakingAssessments(ctx, studentID, courseID),
	}, nil
}

// RunCourseCheckFor lets the owning professor trigger the course-wide scan
func (s *RiskService) RunCourseCheckFor(ctx context.Context, p auth.Principal, courseID int64) (*dto.RiskCheckResponse, error) {
	if _, err := s.authz.RequireCourseOwner(ctx, p, courseID); err != nil {
		return nil, err
	}
	result, err := s.CheckAndNotifyAtRiskStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &dto.RiskCheckResponse{CourseID: courseID, Checked: result.Checked, Notified: result.Notified}, nil
}
