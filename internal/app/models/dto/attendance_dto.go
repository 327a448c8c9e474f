package dto

import "github.com/yigit/acadtrack/internal/app/models"

// RecordAttendanceRequest records a student's status for a day
type RecordAttendanceRequest struct {
	StudentID int64                   `json:"studentId" binding:"required,min=1"`
	Date      string                  `json:"date" binding:"required,datetime=2006-01-02"`
	Status    models.AttendanceStatus `json:"status" binding:"required,attendance_status"`
}

// UpdateAttendanceRequest changes the status of an existing record
type UpdateAttendanceRequest struct {
	Status models.AttendanceStatus `json:"status" binding:"required,attendance_status"`
}
