package dto

// StudentRiskResponse combines the at-risk status with the not-taking check
type StudentRiskResponse struct {
	StudentID            int64    `json:"studentId"`
	CourseID             int64    `json:"courseId"`
	IsAtRisk             bool     `json:"isAtRisk"`
	Reason               string   `json:"reason,omitempty"`
	AverageGrade         *float64 `json:"averageGrade"`
	AttendanceRate       *float64 `json:"attendanceRate"`
	HasGrades            bool     `json:"hasGrades"`
	HasAttendance        bool     `json:"hasAttendance"`
	NotTakingAssessments bool     `json:"notTakingAssessments"`
}

// RiskCheckResponse is returned by the course-wide scan
type RiskCheckResponse struct {
	CourseID int64 `json:"courseId"`
	Checked  int   `json:"checked"`
	Notified int   `json:"notified"`
}
