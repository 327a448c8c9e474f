package dto

// EnrollStudentRequest enrolls a student in the course named by the path
type EnrollStudentRequest struct {
	StudentID int64 `json:"studentId" binding:"required,min=1"`
}
