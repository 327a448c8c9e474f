package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	AccountRepository      *AccountRepository
	StudentRepository      *StudentRepository
	ProfessorRepository    *ProfessorRepository
	CourseRepository       *CourseRepository
	EnrollmentRepository   *EnrollmentRepository
	GradeRepository        *GradeRepository
	AttendanceRepository   *AttendanceRepository
	NotificationRepository *NotificationRepository
	TokenRepository        *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		AccountRepository:      NewAccountRepository(db),
		StudentRepository:      NewStudentRepository(db),
		ProfessorRepository:    NewProfessorRepository(db),
		CourseRepository:       NewCourseRepository(db),
		EnrollmentRepository:   NewEnrollmentRepository(db),
		GradeRepository:        NewGradeRepository(db),
		AttendanceRepository:   NewAttendanceRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		TokenRepository:        NewTokenRepository(db),
	}
}
