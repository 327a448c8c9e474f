package dto

// CreateGradeRequest records one assessment result. Score and MaxPoints may be
// omitted for an assessment that has not been marked yet.
type CreateGradeRequest struct {
	StudentID       int64    `json:"studentId" binding:"required,min=1"`
	AssessmentType  string   `json:"assessmentType" binding:"required,max=50"`
	AssessmentTitle string   `json:"assessmentTitle" binding:"required,max=255"`
	Score           *float64 `json:"score" binding:"omitempty,min=0"`
	MaxPoints       *float64 `json:"maxPoints" binding:"omitempty,gt=0"`
	Date            string   `json:"date" binding:"required,datetime=2006-01-02"`
}

// UpdateGradeRequest is a partial update; nil fields are left unchanged
type UpdateGradeRequest struct {
	AssessmentType  *string  `json:"assessmentType" binding:"omitempty,max=50"`
	AssessmentTitle *string  `json:"assessmentTitle" binding:"omitempty,max=255"`
	Score           *float64 `json:"score" binding:"omitempty,min=0"`
	MaxPoints       *float64 `json:"maxPoints" binding:"omitempty,gt=0"`
	Date            *string  `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateGradeByTitleRequest updates the student's grade for the named assessment
type UpdateGradeByTitleRequest struct {
	StudentID       int64    `json:"studentId" binding:"required,min=1"`
	AssessmentTitle string   `json:"assessmentTitle" binding:"required,max=255"`
	Score           *float64 `json:"score" binding:"omitempty,min=0"`
	MaxPoints       *float64 `json:"maxPoints" binding:"omitempty,gt=0"`
}
