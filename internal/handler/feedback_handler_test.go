package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/aba-scheduler-api/internal/dto"
)

type feedbackTunerMock struct {
	submitResp     *dto.SubmitFeedbackResponse
	submitErr      error
	diagResp       *dto.DiagnosticsResponse
	diagErr        error
	recalibrateErr error
	recalibrated   bool
}

func (m *feedbackTunerMock) SubmitFeedback(_ context.Context, _ dto.SubmitFeedbackRequest) (*dto.SubmitFeedbackResponse, error) {
	return m.submitResp, m.submitErr
}

func (m *feedbackTunerMock) Diagnostics(_ context.Context) (*dto.DiagnosticsResponse, error) {
	return m.diagResp, m.diagErr
}

func (m *feedbackTunerMock) Recalibrate(_ context.Context) error {
	m.recalibrated = true
	return m.recalibrateErr
}

func TestFeedbackHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedbackTunerMock{submitResp: &dto.SubmitFeedbackResponse{Success: true}}
	h := NewFeedbackHandler(mockSvc)

	payload, _ := json.Marshal(dto.SubmitFeedbackRequest{Rating: 4})
	c, w := newGinContext(http.MethodPost, "/feedback", payload)

	h.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestFeedbackHandlerDiagnostics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedbackTunerMock{
		diagResp: &dto.DiagnosticsResponse{
			Observations:          3,
			AverageRating:         2.5,
			Strengths:             []string{},
			RecommendedFocusAreas: []string{"STAFF_DOUBLE_BOOKED"},
		},
	}
	h := NewFeedbackHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/feedback/diagnostics", nil)
	h.Diagnostics(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "STAFF_DOUBLE_BOOKED")
}

func TestFeedbackHandlerRecalibrate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedbackTunerMock{}
	h := NewFeedbackHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/feedback/recalibrate", nil)
	h.Recalibrate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.recalibrated)
}
