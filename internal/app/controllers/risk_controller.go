package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/middleware"
)

// RiskController exposes the risk evaluator
type RiskController struct {
	riskService RiskService
}

// NewRiskController creates a new RiskController
func NewRiskController(riskService RiskService) *RiskController {
	return &RiskController{riskService: riskService}
}

// StudentRisk returns the risk status of a student in a course
// @Summary Student risk status
// @Tags risk
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentRiskResponse}
// @Router /courses/{courseId}/students/{studentId}/risk [get]
func (c *RiskController) StudentRisk(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}
	studentID, ok := pathID(ctx, "studentId")
	if !ok {
		return
	}

	resp, err := c.riskService.StudentRiskFor(ctx.Request.Context(), p, courseID, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// RunCourseCheck evaluates every enrolled student and notifies the ones at risk
// @Summary Course-wide risk check
// @Tags risk
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.RiskCheckResponse}
// @Router /courses/{courseId}/risk-check [post]
func (c *RiskController) RunCourseCheck(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		return
	}
	courseID, ok := pathID(ctx, "courseId")
	if !ok {
		return
	}

	resp, err := c.riskService.RunCourseCheckFor(ctx.Request.Context(), p, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}
