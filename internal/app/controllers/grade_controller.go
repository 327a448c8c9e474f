package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/middleware"
)

// GradeController handles grade endpoints. Writes return as soon as the row
// is stored; notifications and risk checks follow in the background.
type GradeController struct {
	gradeService GradeService
}

// NewGradeController creates a new GradeController
func NewGradeController(gradeService GradeService) *GradeController {
	return &GradeController{gradeService: gradeService}
}

// CreateGrade records a grade
// @Summary Record a grade
// @Tags grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param request body dto.CreateGradeRequest true "Grade"
// @Router /courses/{courseId}/grades [post]
func (c *GradeController) CreateGrade(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	var req dto.CreateGradeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	grade, err := c.gradeService.CreateGrade(ctx.Request.Context(), p, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(grade, "Grade recorded"))
}

// UpdateGrade applies a partial update
// @Summary Update a grade
// @Tags grades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param gradeId path int true "Grade ID"
// @Router /grades/{gradeId} [put]
func (c *GradeController) UpdateGrade(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	gradeID, ok := pathID(ctx, "gradeId")
	if !ok {
		return
	}

	var req dto.UpdateGradeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	grade, err := c.gradeService.UpdateGrade(ctx.Request.Context(), p, gradeID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grade, "Grade updated"))
}

// UpdateGradeByTitle updates a grade addressed by assessment title
// @Router /courses/{courseId}/grades/by-title [put]
func (c *GradeController) UpdateGradeByTitle(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	var req dto.UpdateGradeByTitleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	grade, err := c.gradeService.UpdateGradeByTitle(ctx.Request.Context(), p, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grade, "Grade updated"))
}

// ListCourseGrades lists grades visible to the caller
// @Router /courses/{courseId}/grades [get]
func (c *GradeController) ListCourseGrades(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	grades, err := c.gradeService.ListCourseGrades(ctx.Request.Context(), p, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grades, ""))
}

// ListStudentGrades lists one student's grades in a course
// @Router /students/{studentId}/courses/{courseId}/grades [get]
func (c *GradeController) ListStudentGrades(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	studentID, ok := pathID(ctx, "studentId")
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	grades, err := c.gradeService.ListStudentGrades(ctx.Request.Context(), p, studentID, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(grades, ""))
}
