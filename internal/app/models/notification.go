package models

import "time"

// NotificationKind identifies what produced a notification
type NotificationKind string

const (
	NotificationGrade      NotificationKind = "grade"
	NotificationAttendance NotificationKind = "attendance"
	NotificationEnrollment NotificationKind = "enrollment"
	NotificationAtRisk     NotificationKind = "at_risk"
	NotificationNotTaking  NotificationKind = "not_taking"
	NotificationSystem     NotificationKind = "system"
)

// Valid reports whether k is a known kind
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationGrade, NotificationAttendance, NotificationEnrollment,
		NotificationAtRisk, NotificationNotTaking, NotificationSystem:
		return true
	default:
		return false
	}
}

// Notification is immutable after creation except for IsRead
type Notification struct {
	ID            int64            `json:"id" db:"id"`
	RecipientID   int64            `json:"recipientId" db:"recipient_id"`
	RecipientRole Role             `json:"recipientRole" db:"recipient_role"`
	Kind          NotificationKind `json:"kind" db:"kind"`
	Title         string           `json:"title" db:"title"`
	Message       string           `json:"message" db:"message"`
	CourseID      *int64           `json:"courseId,omitempty" db:"course_id"`
	GradeID       *int64           `json:"gradeId,omitempty" db:"grade_id"`
	AttendanceID  *int64           `json:"attendanceId,omitempty" db:"attendance_id"`
	EnrollmentID  *int64           `json:"enrollmentId,omitempty" db:"enrollment_id"`
	IsRead        bool             `json:"isRead" db:"is_read"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
}

// NotificationLinks are the optional references attached to a notification
type NotificationLinks struct {
	CourseID     *int64
	GradeID      *int64
	AttendanceID *int64
	EnrollmentID *int64
}
