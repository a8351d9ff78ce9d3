package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/services"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/SAP-F-2025/test-session/internal/validator"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StreamServer upgrades a request to the event stream of a session.
type StreamServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error
}

type StartSessionRequest struct {
	TestID models.ID `json:"test_id" validate:"required"`
}

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	exportService  services.ExportService
	stream         StreamServer
	validator      *validator.Validator
}

func NewSessionHandler(
	sessionService services.SessionService,
	exportService services.ExportService,
	stream StreamServer,
	validator *validator.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		exportService:  exportService,
		stream:         stream,
		validator:      validator,
	}
}

// StartSession loads a test and starts its timer
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Starting test session", "test_id", req.TestID.String())

	snapshot, err := h.sessionService.Start(c.Request.Context(), req.TestID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// GetSession returns the current state of a session
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	snapshot, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// SetAnswer writes one answer
// @Router /sessions/{id}/answers/{question_id} [put]
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	questionID := ParseStringIDParam(c, "question_id")
	if questionID == "" {
		return
	}

	var req services.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	snapshot, err := h.sessionService.SetAnswer(c.Request.Context(), id, models.ID(questionID), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// RequestSubmit opens the pre-submit dialog
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) RequestSubmit(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	prompt, err := h.sessionService.RequestSubmit(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// Acknowledge closes the unanswered-questions notice
// @Router /sessions/{id}/acknowledge [post]
func (h *SessionHandler) Acknowledge(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if err := h.sessionService.Acknowledge(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cancel dismisses the confirmation dialog
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if err := h.sessionService.Cancel(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Confirm submits the test
// @Router /sessions/{id}/confirm [post]
func (h *SessionHandler) Confirm(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Submitting test")

	result, err := h.sessionService.Confirm(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Test submitted", result)
}

// Review switches to the per-question review
// @Router /sessions/{id}/review [post]
func (h *SessionHandler) Review(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	items, err := h.sessionService.Review(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetReview returns the review items without changing the view
// @Router /sessions/{id}/review [get]
func (h *SessionHandler) GetReview(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	items, err := h.sessionService.ReviewItems(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Back leaves a submitted session
// @Router /sessions/{id}/back [post]
func (h *SessionHandler) Back(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if err := h.sessionService.Back(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPalette returns the question indicators
// @Router /sessions/{id}/palette [get]
func (h *SessionHandler) GetPalette(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	entries, err := h.sessionService.Palette(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// JumpTo moves to a question
// @Router /sessions/{id}/jump/{index} [post]
func (h *SessionHandler) JumpTo(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	index, ok := ParseIntParam(c, "index")
	if !ok {
		return
	}
	target, err := h.sessionService.JumpTo(c.Request.Context(), id, index)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// GetPage returns one page of questions
// @Router /sessions/{id}/pages/{page} [get]
func (h *SessionHandler) GetPage(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	page, ok := ParseIntParam(c, "page")
	if !ok {
		return
	}
	result, err := h.sessionService.Page(c.Request.Context(), id, page)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportReview downloads the review workbook
// @Router /sessions/{id}/export [get]
func (h *SessionHandler) ExportReview(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	data, filename, err := h.exportService.ExportReview(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Stream upgrades to a websocket that carries ticks and notifications
// @Router /sessions/{id}/ws [get]
func (h *SessionHandler) Stream(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	if _, err := h.sessionService.Get(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	if err := h.stream.ServeWS(c.Writer, c.Request, id); err != nil {
		// the upgrader has already written the response
		h.LogWarn(c, "WebSocket upgrade failed", "error", err)
	}
}

// ListHistory lists submitted sessions
// @Router /history [get]
func (h *SessionHandler) ListHistory(c *gin.Context) {
	var filters repositories.SessionRecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}
	if filters.Limit == 0 {
		filters.Limit = 20
	}

	records, total, err := h.sessionService.History(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
		"limit":   filters.Limit,
		"offset":  filters.Offset,
	})
}
