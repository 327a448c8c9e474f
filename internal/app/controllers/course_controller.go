package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/middleware"
)

// CourseController handles course membership
type CourseController struct {
	enrollmentService EnrollmentService
}

// NewCourseController creates a new CourseController
func NewCourseController(enrollmentService EnrollmentService) *CourseController {
	return &CourseController{enrollmentService: enrollmentService}
}

// MyCourses lists the caller's courses
// @Summary My courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Router /me/courses [get]
func (c *CourseController) MyCourses(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}

	courses, err := c.enrollmentService.MyCourses(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses, ""))
}

// Enroll adds a student to the course
// @Summary Enroll a student
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param request body dto.EnrollStudentRequest true "Student"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Router /courses/{courseId}/enrollments [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	var req dto.EnrollStudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.enrollmentService.Enroll(ctx.Request.Context(), p, courseID, req.StudentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(enrollment, "Student enrolled"))
}

// ListEnrollments lists the students of a course
// @Summary Course enrollments
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Router /courses/{courseId}/enrollments [get]
func (c *CourseController) ListEnrollments(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	enrollments, err := c.enrollmentService.ListEnrollments(ctx.Request.Context(), p, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollments, ""))
}
