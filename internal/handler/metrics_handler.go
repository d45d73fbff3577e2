package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/service"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
	"github.com/noah-isme/sma-scheduling-core/pkg/response"
)

type invariantVerifier interface {
	VerifyInvariants(ctx context.Context) (*models.InvariantReport, error)
}

type auditEnqueuer interface {
	Enqueue(jobType string) (bool, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsHandler exposes observability and audit endpoints.
type OpsHandler struct {
	metrics  http.Handler
	verifier invariantVerifier
	audits   auditEnqueuer
	db       Pinger
}

// NewOpsHandler constructs an ops handler. audits may be nil when no
// background queue runs.
func NewOpsHandler(metrics http.Handler, verifier invariantVerifier, audits auditEnqueuer, db Pinger) *OpsHandler {
	return &OpsHandler{metrics: metrics, verifier: verifier, audits: audits, db: db}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *OpsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *OpsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the database answers.
func (h *OpsHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Invariants godoc
// @Summary Audit active slots and semesters for overlaps
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/invariants [get]
func (h *OpsHandler) Invariants(c *gin.Context) {
	report, err := h.verifier.VerifyInvariants(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ScheduleAudit godoc
// @Summary Queue a background overlap audit
// @Tags Admin
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /admin/invariants/audit [post]
func (h *OpsHandler) ScheduleAudit(c *gin.Context) {
	if h.audits == nil {
		response.Error(c, appErrors.New("AUDIT_UNAVAILABLE", http.StatusServiceUnavailable, "background audits are disabled"))
		return
	}
	queued, err := h.audits.Enqueue(service.InvariantAuditJob)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": queued}, nil)
}
