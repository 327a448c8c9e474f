package models

import "time"

// Course represents a course taught by one professor in a term.
// (code, professor_id) is unique.
type Course struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Credits     int       `json:"credits" db:"credits"`
	ProfessorID int64     `json:"professorId" db:"professor_id"`
	Term        Term      `json:"term" db:"term"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// DisplayName is used when composing notification titles
func (c *Course) DisplayName() string {
	if c.Code == "" {
		return c.Name
	}
	if c.Name == "" {
		return c.Code
	}
	return c.Code + " - " + c.Name
}

// Enrollment is the student/course join row, unique per pair
type Enrollment struct {
	ID        int64     `json:"id" db:"id"`
	StudentID int64     `json:"studentId" db:"student_id"`
	CourseID  int64     `json:"courseId" db:"course_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Student *Student `json:"student,omitempty"`
	Course  *Course  `json:"course,omitempty"`
}
