package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
)

func TestCreateGradeNotifiesAndChecksRisk(t *testing.T) {
	env := newTestEnv(t)

	grade, err := env.gradeSvc.CreateGrade(context.Background(), professorPrincipal(), 100, &dto.CreateGradeRequest{
		StudentID:       10,
		AssessmentType:  "exam",
		AssessmentTitle: "Midterm",
		Score:           f64(30),
		MaxPoints:       f64(100),
		Date:            "2026-10-01",
	})
	require.NoError(t, err)
	assert.NotZero(t, grade.ID)
	assert.Equal(t, day("2026-10-01"), grade.Date)

	env.wait(t)

	gradeNotes := env.notifications.ofKind(10, models.NotificationGrade)
	require.Len(t, gradeNotes, 1)
	assert.Equal(t, "CS101 - Intro to Computing: New Grade Posted", gradeNotes[0].Title)
	assert.Equal(t, "Midterm (exam): 30 / 100", gradeNotes[0].Message)
	require.NotNil(t, gradeNotes[0].GradeID)
	assert.Equal(t, grade.ID, *gradeNotes[0].GradeID)

	assert.Len(t, env.notifications.ofKind(10, models.NotificationAtRisk), 1)
}

func TestNotificationFailureDoesNotFailWrites(t *testing.T) {
	env := newTestEnv(t)
	env.notifications.err = errors.New("notifications table unavailable")
	ctx := context.Background()

	grade, err := env.gradeSvc.CreateGrade(ctx, professorPrincipal(), 100, &dto.CreateGradeRequest{
		StudentID:       10,
		AssessmentType:  "exam",
		AssessmentTitle: "Midterm",
		Score:           f64(30),
		MaxPoints:       f64(100),
		Date:            "2026-10-01",
	})
	require.NoError(t, err)
	require.NotNil(t, grade)

	record, err := env.attendanceSvc.RecordAttendance(ctx, professorPrincipal(), 100,
		&dto.RecordAttendanceRequest{StudentID: 10, Date: "2026-10-02", Status: models.AttendanceAbsent})
	require.NoError(t, err)
	require.NotNil(t, record)

	env.wait(t)

	require.Len(t, env.grades.rows, 1)
	assert.Equal(t, grade.ID, env.grades.rows[0].ID)
	require.Len(t, env.attendance.rows, 1)
	assert.Equal(t, record.ID, env.attendance.rows[0].ID)
	assert.Empty(t, env.notifications.rows)

	logs := env.logs.String()
	assert.Contains(t, logs, "Background task failed")
	assert.Contains(t, logs, `"task":"grade-notification"`)
	assert.Contains(t, logs, `"task":"attendance-notification"`)
	assert.Contains(t, logs, "notifications table unavailable")
}

func TestCreateGradeRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &dto.CreateGradeRequest{StudentID: 10, AssessmentType: "quiz", AssessmentTitle: "Q1", Date: "2026-10-01"}

	_, err := env.gradeSvc.CreateGrade(ctx, otherProfessorPrincipal(), 100, req)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = env.gradeSvc.CreateGrade(ctx, studentPrincipal(), 100, req)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = env.gradeSvc.CreateGrade(ctx, professorPrincipal(), 999, req)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	notEnrolled := *req
	notEnrolled.StudentID = 11
	_, err = env.gradeSvc.CreateGrade(ctx, professorPrincipal(), 100, &notEnrolled)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)

	badDate := *req
	badDate.Date = "01/10/2026"
	_, err = env.gradeSvc.CreateGrade(ctx, professorPrincipal(), 100, &badDate)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	env.wait(t)
	assert.Empty(t, env.notifications.ofKind(10, models.NotificationGrade))
}

func TestUpdateGradeByTitleTargetsNewest(t *testing.T) {
	env := newTestEnv(t)
	env.grades.add(10, 100, "Quiz", f64(1), f64(10))
	newest := env.grades.add(10, 100, "Quiz", f64(2), f64(10))

	grade, err := env.gradeSvc.UpdateGradeByTitle(context.Background(), professorPrincipal(), 100, &dto.UpdateGradeByTitleRequest{
		StudentID:       10,
		AssessmentTitle: "Quiz",
		Score:           f64(9),
	})
	require.NoError(t, err)
	assert.Equal(t, newest.ID, grade.ID)
	assert.Equal(t, 9.0, *grade.Score)

	env.wait(t)
	notes := env.notifications.ofKind(10, models.NotificationGrade)
	require.Len(t, notes, 1)
	assert.Equal(t, "CS101 - Intro to Computing: Grade Updated", notes[0].Title)
}

func TestUpdateGradePartial(t *testing.T) {
	env := newTestEnv(t)
	g := env.grades.add(10, 100, "Lab 1", f64(5), f64(10))
	title := "Lab 1 (resubmitted)"

	updated, err := env.gradeSvc.UpdateGrade(context.Background(), professorPrincipal(), g.ID, &dto.UpdateGradeRequest{AssessmentTitle: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.AssessmentTitle)
	assert.Equal(t, 5.0, *updated.Score)

	_, err = env.gradeSvc.UpdateGrade(context.Background(), professorPrincipal(), 9999, &dto.UpdateGradeRequest{})
	assert.ErrorIs(t, err, apperrors.ErrGradeNotFound)
	env.wait(t)
}

func TestListGradesByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.enrollments.Create(ctx, &models.Enrollment{StudentID: 11, CourseID: 100}))
	env.grades.add(10, 100, "Quiz", f64(8), f64(10))
	env.grades.add(11, 100, "Quiz", f64(6), f64(10))

	all, err := env.gradeSvc.ListCourseGrades(ctx, professorPrincipal(), 100)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := env.gradeSvc.ListCourseGrades(ctx, studentPrincipal(), 100)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, int64(10), own[0].StudentID)

	// a student asking for someone else's grades gets their own
	own, err = env.gradeSvc.ListStudentGrades(ctx, studentPrincipal(), 11, 100)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, int64(10), own[0].StudentID)

	theirs, err := env.gradeSvc.ListStudentGrades(ctx, professorPrincipal(), 11, 100)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, int64(11), theirs[0].StudentID)
}

func TestRecordAttendance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := &dto.RecordAttendanceRequest{StudentID: 10, Date: "2026-10-02", Status: models.AttendanceAbsent}

	record, err := env.attendanceSvc.RecordAttendance(ctx, professorPrincipal(), 100, req)
	require.NoError(t, err)
	assert.NotZero(t, record.ID)

	_, err = env.attendanceSvc.RecordAttendance(ctx, professorPrincipal(), 100, req)
	assert.ErrorIs(t, err, apperrors.ErrAttendanceExists)

	bad := *req
	bad.Status = "asleep"
	_, err = env.attendanceSvc.RecordAttendance(ctx, professorPrincipal(), 100, &bad)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	env.wait(t)
	notes := env.notifications.ofKind(10, models.NotificationAttendance)
	require.Len(t, notes, 1)
	assert.Equal(t, "CS101 - Intro to Computing: Marked Absent", notes[0].Title)
	assert.Len(t, env.notifications.ofKind(10, models.NotificationAtRisk), 1)
}

func TestPresentAttendanceDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.attendanceSvc.RecordAttendance(context.Background(), professorPrincipal(), 100,
		&dto.RecordAttendanceRequest{StudentID: 10, Date: "2026-10-02", Status: models.AttendancePresent})
	require.NoError(t, err)

	env.wait(t)
	assert.Empty(t, env.notifications.ofKind(10, models.NotificationAttendance))
	assert.Empty(t, env.notifications.ofKind(10, models.NotificationAtRisk))
}

func TestUpdateAttendanceAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.attendance.add(10, 100, models.AttendanceAbsent)

	record, err := env.attendanceSvc.UpdateAttendance(ctx, professorPrincipal(), 1, &dto.UpdateAttendanceRequest{Status: models.AttendanceExcused})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceExcused, record.Status)

	_, err = env.attendanceSvc.UpdateAttendance(ctx, otherProfessorPrincipal(), 1, &dto.UpdateAttendanceRequest{Status: models.AttendancePresent})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	list, err := env.attendanceSvc.ListCourseAttendance(ctx, studentPrincipal(), 100)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.AttendanceExcused, list[0].Status)
	env.wait(t)
}

func TestEnroll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	enrollment, err := env.enrollmentSvc.Enroll(ctx, professorPrincipal(), 100, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), enrollment.StudentID)
	require.NotNil(t, enrollment.Student)
	assert.Equal(t, "Ben Reyes", enrollment.Student.Name)

	_, err = env.enrollmentSvc.Enroll(ctx, professorPrincipal(), 100, 11)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)

	_, err = env.enrollmentSvc.Enroll(ctx, professorPrincipal(), 100, 404)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)

	_, err = env.enrollmentSvc.Enroll(ctx, otherProfessorPrincipal(), 100, 11)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	env.wait(t)
	assert.Len(t, env.notifications.ofKind(11, models.NotificationEnrollment), 1)

	list, err := env.enrollmentSvc.ListEnrollments(ctx, professorPrincipal(), 100)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMyCourses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taught, err := env.enrollmentSvc.MyCourses(ctx, professorPrincipal())
	require.NoError(t, err)
	require.Len(t, taught, 1)
	assert.Equal(t, "CS101", taught[0].Code)

	enrolled, err := env.enrollmentSvc.MyCourses(ctx, studentPrincipal())
	require.NoError(t, err)
	assert.Len(t, enrolled, 1)

	none, err := env.enrollmentSvc.MyCourses(ctx, otherProfessorPrincipal())
	require.NoError(t, err)
	assert.Empty(t, none)
}
