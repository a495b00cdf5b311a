package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/edtriage/backend/internal/repository"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type RunsHandler struct {
	repoManager *repository.RepositoryManager
	logger      *logrus.Logger
}

func NewRunsHandler(repoManager *repository.RepositoryManager, logger *logrus.Logger) *RunsHandler {
	return &RunsHandler{repoManager: repoManager, logger: logger}
}

func (h *RunsHandler) enabled(c *gin.Context) bool {
	if h.repoManager == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Run audit is disabled", nil)
		return false
	}
	return true
}

// HandleRecentRuns lists the latest audited runs.
func (h *RunsHandler) HandleRecentRuns(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	runs, err := h.repoManager.TriageRun.GetRecent(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recent runs")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get runs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Runs retrieved", runs)
}

func (h *RunsHandler) HandleGetRun(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	run, err := h.repoManager.TriageRun.GetByRequestID(c.Param("request_id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "Run not found", nil)
			return
		}
		h.logger.WithError(err).Error("Failed to get run")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get run", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Run retrieved", run)
}

// HandleTierStats counts runs per serving tier over the last day.
func (h *RunsHandler) HandleTierStats(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	stats, err := h.repoManager.TriageRun.CountByTier(time.Now().Add(-24 * time.Hour))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get tier stats")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Stats retrieved", stats)
}
