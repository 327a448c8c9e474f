package services

import (
	"context"
	"time"

	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/repositories"
	"github.com/yigit/acadtrack/internal/pkg/websocket"
)

// The interfaces below are satisfied by the pgx repositories and by in-memory
// fakes in tests.

// AccountStore persists login accounts
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	LinkProfile(ctx context.Context, accountID, profileID int64) error
	UpdateLastLogin(ctx context.Context, accountID int64, at time.Time) error
}

// TokenStore persists refresh tokens
type TokenStore interface {
	CreateToken(ctx context.Context, token string, accountID int64, expiryDate time.Time) error
	GetAccountIDByToken(ctx context.Context, token string) (int64, error)
	RevokeToken(ctx context.Context, token string) error
}

// GradeStore reads and writes grade rows
type GradeStore interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.Grade, error)
	FindByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error)
	FindByStudentCourseTitle(ctx context.Context, studentID, courseID int64, title string) (*models.Grade, error)
	GetByID(ctx context.Context, id int64) (*models.Grade, error)
	Create(ctx context.Context, g *models.Grade) error
	Update(ctx context.Context, g *models.Grade) error
}

// AttendanceStore reads and writes attendance rows
type AttendanceStore interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID int64) ([]*models.Attendance, error)
	FindByCourse(ctx context.Context, courseID int64) ([]*models.Attendance, error)
	GetByID(ctx context.Context, id int64) (*models.Attendance, error)
	Create(ctx context.Context, a *models.Attendance) error
	UpdateStatus(ctx context.Context, id int64, status models.AttendanceStatus) error
}

// CourseStore reads courses
type CourseStore interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindByProfessor(ctx context.Context, professorID int64) ([]*models.Course, error)
	FindByStudent(ctx context.Context, studentID int64) ([]*models.Course, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

// EnrollmentStore reads and writes enrollments
type EnrollmentStore interface {
	Create(ctx context.Context, e *models.Enrollment) error
	FindByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error)
	IsEnrolled(ctx context.Context, studentID, courseID int64) (bool, error)
}

// StudentStore loads student profiles by id
type StudentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// NotificationStore persists notifications
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	FindRecent(ctx context.Context, recipientID int64, role models.Role, courseID int64, kind models.NotificationKind, since *time.Time) (*models.Notification, error)
	List(ctx context.Context, recipientID int64, role models.Role, opts repositories.NotificationListOptions) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID int64, role models.Role) (int64, error)
	MarkRead(ctx context.Context, id, recipientID int64, role models.Role) error
	MarkAllRead(ctx context.Context, recipientID int64, role models.Role) (int64, error)
	Delete(ctx context.Context, id, recipientID int64, role models.Role) error
}

// Publisher pushes events to connected clients
type Publisher interface {
	Publish(recipient websocket.Recipient, eventType string, data interface{})
}
