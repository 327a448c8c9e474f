package models

import "time"

// Student defines the student profile based on the 'students' table
type Student struct {
	ID                 int64     `json:"id" db:"id"`
	ExternalIdentifier *string   `json:"externalIdentifier,omitempty" db:"external_identifier"`
	Name               string    `json:"name" db:"name"`
	Email              string    `json:"email" db:"email"`
	Department         *string   `json:"department,omitempty" db:"department"`
	Photo              *string   `json:"photo,omitempty" db:"photo"`
	StudentCode        *string   `json:"studentCode,omitempty" db:"student_code"` // institutional numeric code
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// Professor defines the professor profile based on the 'professors' table
type Professor struct {
	ID                 int64     `json:"id" db:"id"`
	ExternalIdentifier *string   `json:"externalIdentifier,omitempty" db:"external_identifier"`
	Name               string    `json:"name" db:"name"`
	Email              string    `json:"email" db:"email"`
	Department         *string   `json:"department,omitempty" db:"department"`
	Photo              *string   `json:"photo,omitempty" db:"photo"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the role-agnostic view of a Student or Professor row returned by
// the identity resolver.
type Profile struct {
	ID          int64   `json:"id"`
	Role        Role    `json:"role"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Department  *string `json:"department,omitempty"`
	Photo       *string `json:"photo,omitempty"`
	StudentCode *string `json:"studentCode,omitempty"`
}

// ProfileFromStudent builds a Profile from a student row
func ProfileFromStudent(s *Student) *Profile {
	return &Profile{
		ID:          s.ID,
		Role:        RoleStudent,
		Name:        s.Name,
		Email:       s.Email,
		Department:  s.Department,
		Photo:       s.Photo,
		StudentCode: s.StudentCode,
	}
}

// ProfileFromProfessor builds a Profile from a professor row
func ProfileFromProfessor(p *Professor) *Profile {
	return &Profile{
		ID:         p.ID,
		Role:       RoleProfessor,
		Name:       p.Name,
		Email:      p.Email,
		Department: p.Department,
		Photo:      p.Photo,
	}
}
