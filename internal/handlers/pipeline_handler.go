package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/HuskeLuv/SFC-sub003/internal/errors"
	"github.com/HuskeLuv/SFC-sub003/internal/ingest"
)

// Syncer runs the ingestion jobs on demand.
type Syncer interface {
	SyncQuotes(ctx context.Context) (*ingest.RunResult, error)
	SyncIndexes(ctx context.Context) (*ingest.RunResult, error)
}

// PipelineHandler lets an external scheduler trigger ingestion runs.
type PipelineHandler struct {
	syncer Syncer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(syncer Syncer) *PipelineHandler {
	return &PipelineHandler{syncer: syncer}
}

// SyncQuotes refreshes stored stock prices
// @Summary     Sync quotes
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} ingest.RunResult
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     502 {object} ErrorResponse "Provider unavailable"
// @Router      /pipeline/quotes/sync [post]
func (h *PipelineHandler) SyncQuotes(c *gin.Context) {
	h.run(c, h.syncer.SyncQuotes)
}

// SyncIndexes refreshes economic index series
// @Summary     Sync indexes
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} ingest.RunResult
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     502 {object} ErrorResponse "Provider unavailable"
// @Router      /pipeline/indexes/sync [post]
func (h *PipelineHandler) SyncIndexes(c *gin.Context) {
	h.run(c, h.syncer.SyncIndexes)
}

func (h *PipelineHandler) run(c *gin.Context, job func(context.Context) (*ingest.RunResult, error)) {
	result, err := job(c.Request.Context())
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrUpstream, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
