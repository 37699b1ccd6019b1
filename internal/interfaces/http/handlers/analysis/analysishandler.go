// Package analysis exposes the metered chart-analysis endpoint. Quota and
// rate enforcement happen in middleware before the handler runs.
package analysis

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appAnalysis "chartly/internal/application/analysis"
	"chartly/internal/interfaces/http/middleware"
	"chartly/internal/shared/logger"
	"chartly/internal/shared/utils"
)

type AnalysisHandler struct {
	analyzer appAnalysis.Analyzer
	logger   logger.Interface
}

func NewAnalysisHandler(analyzer appAnalysis.Analyzer, logger logger.Interface) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Analyze runs one chart analysis for the authenticated user.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req appAnalysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("failed to bind analysis request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), userID, req)
	if err != nil {
		h.logger.Errorw("analysis failed",
			"error", err,
			"user_id", userID,
			"symbol", req.Symbol,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, result)
}
