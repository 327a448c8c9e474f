package models

import "time"

// Grade is a single assessment result. Several rows may share
// (student, course, title); Score and MaxPoints are nullable.
type Grade struct {
	ID              int64     `json:"id" db:"id"`
	StudentID       int64     `json:"studentId" db:"student_id"`
	CourseID        int64     `json:"courseId" db:"course_id"`
	AssessmentType  string    `json:"assessmentType" db:"assessment_type"`
	AssessmentTitle string    `json:"assessmentTitle" db:"assessment_title"`
	Score           *float64  `json:"score,omitempty" db:"score"`
	MaxPoints       *float64  `json:"maxPoints,omitempty" db:"max_points"`
	Date            time.Time `json:"date" db:"date"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// Usable reports whether the row can take part in an average
func (g *Grade) Usable() bool {
	return g.Score != nil && g.MaxPoints != nil
}

// AttendanceStatus is the recorded presence for one day
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// Attendance is unique per (student, course, date)
type Attendance struct {
	ID        int64            `json:"id" db:"id"`
	StudentID int64            `json:"studentId" db:"student_id"`
	CourseID  int64            `json:"courseId" db:"course_id"`
	Date      time.Time        `json:"date" db:"date"`
	Status    AttendanceStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}
