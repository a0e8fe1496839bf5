package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/aba-scheduler-api/internal/dto"
	appErrors "github.com/brightpath/aba-scheduler-api/pkg/errors"
	"github.com/brightpath/aba-scheduler-api/pkg/response"
)

type feedbackTuner interface {
	SubmitFeedback(ctx context.Context, req dto.SubmitFeedbackRequest) (*dto.SubmitFeedbackResponse, error)
	Diagnostics(ctx context.Context) (*dto.DiagnosticsResponse, error)
	Recalibrate(ctx context.Context) error
}

// FeedbackHandler exposes the feedback loop endpoints.
type FeedbackHandler struct {
	tuner feedbackTuner
}

// NewFeedbackHandler constructs the handler.
func NewFeedbackHandler(tuner feedbackTuner) *FeedbackHandler {
	return &FeedbackHandler{tuner: tuner}
}

// Submit godoc
// @Summary Record a rating of a produced schedule
// @Description A failed write yields success=false in the body rather than a transport error.
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body dto.SubmitFeedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	result, err := h.tuner.SubmitFeedback(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Diagnostics godoc
// @Summary Summarise stored feedback observations
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /feedback/diagnostics [get]
func (h *FeedbackHandler) Diagnostics(c *gin.Context) {
	result, err := h.tuner.Diagnostics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Recalibrate godoc
// @Summary Recalibrate rule weights from recent feedback now
// @Description Runs the same pass the background loop performs on its interval.
// @Tags Feedback
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /feedback/recalibrate [post]
func (h *FeedbackHandler) Recalibrate(c *gin.Context) {
	if err := h.tuner.Recalibrate(c.Request.Context()); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "recalibration failed"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"recalibrated": true}, nil)
}
