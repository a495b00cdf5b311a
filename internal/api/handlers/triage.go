package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/edtriage/backend/internal/models"
	"github.com/edtriage/backend/internal/repository"
	"github.com/edtriage/backend/internal/services"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxFieldLength = 4000

type TriageRunner interface {
	Triage(ctx context.Context, patient models.PatientCase) (*services.TriageResult, error)
	Classify(ctx context.Context, symptoms string) (*services.ClassifyResult, error)
}

type HandlerConfig struct {
	// RequestTimeout bounds one triage or classify call end to end.
	RequestTimeout    time.Duration
	LiteratureTimeout time.Duration
	MaxResults        int
}

type TriageHandler struct {
	triage      TriageRunner
	literature  services.LiteratureSearcher
	repoManager *repository.RepositoryManager
	config      HandlerConfig
	logger      *logrus.Logger
}

// NewTriageHandler wires the triage endpoints. repoManager may be nil, in
// which case runs are not audited.
func NewTriageHandler(
	triage TriageRunner,
	literature services.LiteratureSearcher,
	repoManager *repository.RepositoryManager,
	config HandlerConfig,
	logger *logrus.Logger,
) *TriageHandler {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 3 * time.Minute
	}
	if config.LiteratureTimeout <= 0 {
		config.LiteratureTimeout = 30 * time.Second
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 10
	}
	return &TriageHandler{
		triage:      triage,
		literature:  literature,
		repoManager: repoManager,
		config:      config,
		logger:      logger,
	}
}

// HandleTriage runs the literature-grounded triage pipeline for one case.
func (h *TriageHandler) HandleTriage(c *gin.Context) {
	startTime := time.Now()

	var req models.TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid triage request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if req.IsEmpty() {
		utils.ErrorResponse(c, http.StatusBadRequest, "Patient case cannot be empty", nil)
		return
	}
	if tooLong(req.Symptoms, req.Vitals, req.Age, req.Weight,
		req.PastMedicalHistory, req.LastKnownWell, req.ExamFindings) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Field too long (max 4000 characters)", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.RequestTimeout)
	defer cancel()

	result, err := h.triage.Triage(ctx, req.PatientCase)
	if err != nil {
		h.abort(c, err)
		return
	}

	requestID := c.GetString("request_id")
	latency := time.Since(startTime)

	go h.trackRun(models.TriageRun{
		RequestID:     requestID,
		Mode:          models.ModeTriage,
		Tier:          string(result.Tier),
		BothFailed:    result.BothFailed,
		DocumentCount: result.Documents,
		ChunkCount:    result.Chunks,
		LatencyMs:     int(latency.Milliseconds()),
	})

	h.logger.WithFields(logrus.Fields{
		"request_id":    requestID,
		"tier":          result.Tier,
		"documents":     result.Documents,
		"chunks":        result.Chunks,
		"response_time": latency.Milliseconds(),
	}).Info("Triage request served")

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Triage completed", models.TriageResponse{
		Text:       result.Text,
		Tier:       string(result.Tier),
		BothFailed: result.BothFailed,
		Documents:  result.Documents,
		Chunks:     result.Chunks,
		Sources:    sources,
		RequestID:  requestID,
	})
}

// HandleClassify suggests a specialty for the submitted symptoms.
func (h *TriageHandler) HandleClassify(c *gin.Context) {
	startTime := time.Now()

	var req models.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	symptoms := strings.TrimSpace(req.Symptoms)
	if symptoms == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Symptoms cannot be empty", nil)
		return
	}
	if tooLong(symptoms) {
		utils.ErrorResponse(c, http.StatusBadRequest, "Field too long (max 4000 characters)", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.RequestTimeout)
	defer cancel()

	result, err := h.triage.Classify(ctx, symptoms)
	if err != nil {
		h.abort(c, err)
		return
	}

	requestID := c.GetString("request_id")
	go h.trackRun(models.TriageRun{
		RequestID:  requestID,
		Mode:       models.ModeClassify,
		Tier:       string(result.Tier),
		BothFailed: result.BothFailed,
		LatencyMs:  int(time.Since(startTime).Milliseconds()),
	})

	utils.SuccessResponse(c, http.StatusOK, "Classification completed", models.ClassifyResponse{
		Text:       result.Text,
		Specialty:  result.Specialty,
		Matched:    result.Matched,
		Tier:       string(result.Tier),
		BothFailed: result.BothFailed,
		RequestID:  requestID,
	})
}

// HandleSpecialties lists the specialties Classify chooses from.
func (h *TriageHandler) HandleSpecialties(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Specialties retrieved", models.Specialties)
}

// HandleLiterature exposes the retriever for inspection.
func (h *TriageHandler) HandleLiterature(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'q' is required", nil)
		return
	}

	maxResults := h.config.MaxResults
	if raw := c.Query("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'max' must be a positive integer", err)
			return
		}
		maxResults = n
	}
	if maxResults > 100 {
		maxResults = 100
	}
	includeText := c.Query("include_text") == "true"

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.LiteratureTimeout)
	defer cancel()

	documents, err := h.literature.Search(ctx, query, maxResults)
	if err != nil {
		h.abort(c, err)
		return
	}

	results := make([]models.LiteratureResult, 0, len(documents))
	for _, doc := range documents {
		result := models.LiteratureResult{ID: doc.ID, Length: len(doc.Text)}
		if includeText {
			result.Text = doc.Text
		}
		results = append(results, result)
	}

	utils.SuccessResponse(c, http.StatusOK, "Literature retrieved", models.LiteratureResponse{
		Query:     query,
		Documents: results,
		Total:     len(results),
	})
}

// abort handles the context errors the pipeline returns. A client that went
// away gets no response.
func (h *TriageHandler) abort(c *gin.Context, err error) {
	if c.Request.Context().Err() != nil {
		h.logger.WithField("request_id", c.GetString("request_id")).Info("Client cancelled request")
		c.Abort()
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "Request timed out", err)
		return
	}
	h.logger.WithError(err).Error("Request failed")
	utils.ErrorResponse(c, http.StatusInternalServerError, "Request failed", err)
}

func (h *TriageHandler) trackRun(run models.TriageRun) {
	if h.repoManager == nil || h.repoManager.TriageRun == nil {
		return
	}
	if err := h.repoManager.TriageRun.Create(&run); err != nil {
		h.logger.WithError(err).WithField("request_id", run.RequestID).Error("Failed to record triage run")
	}
}

func tooLong(fields ...string) bool {
	for _, f := range fields {
		if len([]rune(f)) > maxFieldLength {
			return true
		}
	}
	return false
}
