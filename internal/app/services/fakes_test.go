package services

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/repositories"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	"github.com/yigit/acadtrack/internal/pkg/cache"
	"github.com/yigit/acadtrack/internal/pkg/websocket"
)

func f64(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

type fakeGrades struct {
	mu     sync.Mutex
	rows   []*models.Grade
	nextID int64
	err    error
}

func (f *fakeGrades) add(studentID, courseID int64, title string, score, max *float64) *models.Grade {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g := &models.Grade{ID: f.nextID, StudentID: studentID, CourseID: courseID, AssessmentType: "quiz", AssessmentTitle: title, Score: score, MaxPoints: max}
	f.rows = append(f.rows, g)
	return g
}

func (f *fakeGrades) FindByStudentAndCourse(_ context.Context, studentID, courseID int64) ([]*models.Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Grade
	for _, g := range f.rows {
		if g.StudentID == studentID && g.CourseID == courseID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrades) FindByCourse(_ context.Context, courseID int64) ([]*models.Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Grade
	for _, g := range f.rows {
		if g.CourseID == courseID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGrades) FindByStudentCourseTitle(_ context.Context, studentID, courseID int64, title string) (*models.Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		g := f.rows[i]
		if g.StudentID == studentID && g.CourseID == courseID && g.AssessmentTitle == title {
			return g, nil
		}
	}
	return nil, apperrors.ErrGradeNotFound
}

func (f *fakeGrades) GetByID(_ context.Context, id int64) (*models.Grade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.rows {
		if g.ID == id {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apperrors.ErrGradeNotFound
}

func (f *fakeGrades) Create(_ context.Context, g *models.Grade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g.ID = f.nextID
	cp := *g
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeGrades) Update(_ context.Context, g *models.Grade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.ID == g.ID {
			cp := *g
			f.rows[i] = &cp
			return nil
		}
	}
	return apperrors.ErrGradeNotFound
}

type fakeAttendance struct {
	mu     sync.Mutex
	rows   []*models.Attendance
	nextID int64
	err    error
}

func (f *fakeAttendance) add(studentID, courseID int64, statuses ...models.AttendanceStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range statuses {
		f.nextID++
		f.rows = append(f.rows, &models.Attendance{
			ID: f.nextID, StudentID: studentID, CourseID: courseID,
			Date: day("2026-09-01").AddDate(0, 0, i), Status: s,
		})
	}
}

func (f *fakeAttendance) FindByStudentAndCourse(_ context.Context, studentID, courseID int64) ([]*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Attendance
	for _, a := range f.rows {
		if a.StudentID == studentID && a.CourseID == courseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttendance) FindByCourse(_ context.Context, courseID int64) ([]*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Attendance
	for _, a := range f.rows {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttendance) GetByID(_ context.Context, id int64) (*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.ErrAttendanceNotFound
}

func (f *fakeAttendance) Create(_ context.Context, a *models.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.StudentID == a.StudentID && row.CourseID == a.CourseID && row.Date.Equal(a.Date) {
			return apperrors.ErrAttendanceExists
		}
	}
	f.nextID++
	a.ID = f.nextID
	cp := *a
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeAttendance) UpdateStatus(_ context.Context, id int64, status models.AttendanceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.ID == id {
			a.Status = status
			return nil
		}
	}
	return apperrors.ErrAttendanceNotFound
}

type fakeEnrollments struct {
	mu     sync.Mutex
	rows   []*models.Enrollment
	nextID int64
}

func (f *fakeEnrollments) Create(_ context.Context, e *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.StudentID == e.StudentID && row.CourseID == e.CourseID {
			return apperrors.ErrAlreadyEnrolled
		}
	}
	f.nextID++
	e.ID = f.nextID
	cp := *e
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeEnrollments) FindByCourse(_ context.Context, courseID int64) ([]*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Enrollment
	for _, e := range f.rows {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEnrollments) IsEnrolled(_ context.Context, studentID, courseID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.StudentID == studentID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

type fakeCourses struct {
	rows        map[int64]*models.Course
	enrollments *fakeEnrollments
}

func (f *fakeCourses) FindByID(_ context.Context, id int64) (*models.Course, error) {
	if c, ok := f.rows[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrCourseNotFound
}

func (f *fakeCourses) FindByProfessor(_ context.Context, professorID int64) ([]*models.Course, error) {
	out := []*models.Course{}
	for _, id := range f.ids() {
		if f.rows[id].ProfessorID == professorID {
			out = append(out, f.rows[id])
		}
	}
	return out, nil
}

func (f *fakeCourses) FindByStudent(ctx context.Context, studentID int64) ([]*models.Course, error) {
	out := []*models.Course{}
	for _, id := range f.ids() {
		if ok, _ := f.enrollments.IsEnrolled(ctx, studentID, id); ok {
			out = append(out, f.rows[id])
		}
	}
	return out, nil
}

func (f *fakeCourses) ListIDs(context.Context) ([]int64, error) {
	return f.ids(), nil
}

func (f *fakeCourses) ids() []int64 {
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type fakeStudents struct {
	rows []*models.Student
}

func (f *fakeStudents) FindByID(_ context.Context, id int64) (*models.Student, error) {
	for _, s := range f.rows {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

func (f *fakeStudents) FindByEmail(_ context.Context, email string) (*models.Student, error) {
	for _, s := range f.rows {
		if strings.EqualFold(s.Email, email) {
			return s, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

func (f *fakeStudents) FindByStudentCode(_ context.Context, code string) (*models.Student, error) {
	for _, s := range f.rows {
		if s.StudentCode != nil && *s.StudentCode == code {
			return s, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

type fakeProfessors struct {
	rows []*models.Professor
}

func (f *fakeProfessors) FindByID(_ context.Context, id int64) (*models.Professor, error) {
	for _, p := range f.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

func (f *fakeProfessors) FindByEmail(_ context.Context, email string) (*models.Professor, error) {
	for _, p := range f.rows {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return nil, apperrors.ErrProfileNotFound
}

type fakeNotifications struct {
	mu     sync.Mutex
	rows   []*models.Notification
	nextID int64
	counts int
	err    error

	// afterCount runs once CountUnread has read its value
	afterCount func()
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	n.ID = f.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeNotifications) FindRecent(_ context.Context, recipientID int64, role models.Role, courseID int64, kind models.NotificationKind, since *time.Time) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *models.Notification
	for _, n := range f.rows {
		if n.RecipientID != recipientID || n.RecipientRole != role || n.Kind != kind {
			continue
		}
		if n.CourseID == nil || *n.CourseID != courseID {
			continue
		}
		if since != nil && n.CreatedAt.Before(*since) {
			continue
		}
		if found == nil || n.CreatedAt.After(found.CreatedAt) {
			found = n
		}
	}
	return found, nil
}

func (f *fakeNotifications) List(_ context.Context, recipientID int64, role models.Role, opts repositories.NotificationListOptions) ([]*models.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*models.Notification
	for i := len(f.rows) - 1; i >= 0; i-- {
		n := f.rows[i]
		if n.RecipientID == recipientID && n.RecipientRole == role && (!opts.UnreadOnly || !n.IsRead) {
			all = append(all, n)
		}
	}
	total := int64(len(all))
	if opts.Offset >= len(all) {
		return []*models.Notification{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[opts.Offset:end], total, nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, recipientID int64, role models.Role) (int64, error) {
	f.mu.Lock()
	f.counts++
	var n int64
	for _, row := range f.rows {
		if row.RecipientID == recipientID && row.RecipientRole == role && !row.IsRead {
			n++
		}
	}
	hook := f.afterCount
	f.afterCount = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return n, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id, recipientID int64, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id && n.RecipientID == recipientID && n.RecipientRole == role {
			n.IsRead = true
			return nil
		}
	}
	return apperrors.ErrNotificationNotFound
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, recipientID int64, role models.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var updated int64
	for _, n := range f.rows {
		if n.RecipientID == recipientID && n.RecipientRole == role && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (f *fakeNotifications) Delete(_ context.Context, id, recipientID int64, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.rows {
		if n.ID == id && n.RecipientID == recipientID && n.RecipientRole == role {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotificationNotFound
}

func (f *fakeNotifications) ofKind(recipientID int64, kind models.NotificationKind) []*models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Notification
	for _, n := range f.rows {
		if n.RecipientID == recipientID && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type published struct {
	recipient websocket.Recipient
	eventType string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (f *fakePublisher) Publish(recipient websocket.Recipient, eventType string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{recipient, eventType})
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", cache.ErrNotFound
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case string:
		f.data[key] = v
	case int64:
		f.data[key] = strconv.FormatInt(v, 10)
	}
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

// logBuffer collects log lines written from background goroutines
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testEnv wires the services over in-memory stores. Professor 1 teaches
// course 100 (CS101) and student 10 is enrolled in it; student 11 is not.
type testEnv struct {
	logs          *logBuffer
	grades        *fakeGrades
	attendance    *fakeAttendance
	enrollments   *fakeEnrollments
	courses       *fakeCourses
	students      *fakeStudents
	professors    *fakeProfessors
	notifications *fakeNotifications
	publisher     *fakePublisher
	cache         *fakeCache

	background    *Background
	authz         *auth.AuthorizationService
	notifySvc     *NotificationService
	risk          *RiskService
	gradeSvc      *GradeService
	attendanceSvc *AttendanceService
	enrollmentSvc *EnrollmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logs := &logBuffer{}
	log := zerolog.New(logs)
	code := "141715"

	env := &testEnv{
		logs:          logs,
		grades:        &fakeGrades{},
		attendance:    &fakeAttendance{},
		enrollments:   &fakeEnrollments{},
		notifications: &fakeNotifications{},
		publisher:     &fakePublisher{},
		cache:         &fakeCache{data: map[string]string{}},
		students: &fakeStudents{rows: []*models.Student{
			{ID: 10, Name: "Ana Cruz", Email: "ana.cruz@school.edu", StudentCode: &code},
			{ID: 11, Name: "Ben Reyes", Email: "ben.reyes@school.edu"},
		}},
		professors: &fakeProfessors{rows: []*models.Professor{
			{ID: 1, Name: "Dr. Santos", Email: "santos@school.edu"},
			{ID: 2, Name: "Dr. Lim", Email: "lim@school.edu"},
		}},
	}
	env.courses = &fakeCourses{
		rows:        map[int64]*models.Course{100: {ID: 100, Code: "CS101", Name: "Intro to Computing", ProfessorID: 1}},
		enrollments: env.enrollments,
	}
	require.NoError(t, env.enrollments.Create(context.Background(), &models.Enrollment{StudentID: 10, CourseID: 100}))

	resolver := auth.NewIdentityResolver(env.students, env.professors)
	env.background = NewBackground(5*time.Second, log)
	env.authz = auth.NewAuthorizationService(resolver, env.courses, env.enrollments)
	env.notifySvc = NewNotificationService(env.notifications, resolver, env.cache, env.publisher, time.Minute, log)
	env.risk = NewRiskService(env.grades, env.attendance, env.courses, env.enrollments, env.notifySvc, env.authz, env.background, DefaultRiskPolicy(), log)
	env.gradeSvc = NewGradeService(env.grades, env.enrollments, env.authz, env.notifySvc, env.risk, env.background, log)
	env.attendanceSvc = NewAttendanceService(env.attendance, env.enrollments, env.authz, env.notifySvc, env.risk, env.background, log)
	env.enrollmentSvc = NewEnrollmentService(env.enrollments, env.students, env.courses, env.authz, env.notifySvc, env.background, log)
	return env
}

func (e *testEnv) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.background.Wait(ctx))
}

func professorPrincipal() auth.Principal {
	return auth.Principal{AccountID: 501, Role: models.RoleProfessor, Email: "santos@school.edu"}
}

func otherProfessorPrincipal() auth.Principal {
	return auth.Principal{AccountID: 502, Role: models.RoleProfessor, Email: "lim@school.edu"}
}

func studentPrincipal() auth.Principal {
	return auth.Principal{AccountID: 601, Role: models.RoleStudent, Email: "ana.cruz@school.edu"}
}
