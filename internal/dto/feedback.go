package dto

import "github.com/brightpath/aba-scheduler-api/internal/models"

// SubmitFeedbackRequest records a human rating of a produced schedule
// together with the violation detail observed at rating time.
type SubmitFeedbackRequest struct {
	ScheduleID       *string                  `json:"scheduleId"`
	TeamID           *string                  `json:"teamId"`
	Rating           int                      `json:"rating" validate:"required,min=1,max=5"`
	ViolationsCount  int                      `json:"violationsCount" validate:"min=0"`
	ViolationsDetail []models.ValidationError `json:"violationsDetail"`
	FeedbackText     string                   `json:"feedbackText" validate:"omitempty,max=2000"`
}

// SubmitFeedbackResponse reports storage success as data; a failed write is
// not a transport error.
type SubmitFeedbackResponse struct {
	Success bool `json:"success"`
}

// DiagnosticsResponse summarises stored observations for display.
type DiagnosticsResponse struct {
	AverageRating         float64  `json:"averageRating"`
	Observations          int      `json:"observations"`
	Strengths             []string `json:"strengths"`
	RecommendedFocusAreas []string `json:"recommendedFocusAreas"`
	WeightTableVersion    int      `json:"weightTableVersion"`
}
