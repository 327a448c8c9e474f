package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/middleware"
)

// AttendanceController handles attendance endpoints
type AttendanceController struct {
	attendanceService AttendanceService
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService AttendanceService) *AttendanceController {
	return &AttendanceController{attendanceService: attendanceService}
}

// RecordAttendance stores one day's status for a student
// @Summary Record attendance
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param request body dto.RecordAttendanceRequest true "Attendance"
// @Failure 409 {object} dto.ErrorResponse "Already recorded for this date"
// @Router /courses/{courseId}/attendance [post]
func (c *AttendanceController) RecordAttendance(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	var req dto.RecordAttendanceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	record, err := c.attendanceService.RecordAttendance(ctx.Request.Context(), p, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(record, "Attendance recorded"))
}

// UpdateAttendance changes a record's status
// @Router /attendance/{attendanceId} [put]
func (c *AttendanceController) UpdateAttendance(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	attendanceID, ok := pathID(ctx, "attendanceId")
	if !ok {
		return
	}

	var req dto.UpdateAttendanceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	record, err := c.attendanceService.UpdateAttendance(ctx.Request.Context(), p, attendanceID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(record, "Attendance updated"))
}

// ListCourseAttendance lists attendance visible to the caller
// @Router /courses/{courseId}/attendance [get]
func (c *AttendanceController) ListCourseAttendance(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	records, err := c.attendanceService.ListCourseAttendance(ctx.Request.Context(), p, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(records, ""))
}
