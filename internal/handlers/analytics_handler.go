package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/test-session/internal/services"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetTestStatistics summarizes the stored submissions of a test
// @Router /tests/{test_id}/stats [get]
func (h *AnalyticsHandler) GetTestStatistics(c *gin.Context) {
	testID := ParseStringIDParam(c, "test_id")
	if testID == "" {
		return
	}
	stats, err := h.analyticsService.GetTestStatistics(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
