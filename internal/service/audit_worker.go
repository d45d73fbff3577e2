package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/pkg/jobs"
)

// InvariantAuditJob is the queue job type that runs an overlap audit.
const InvariantAuditJob = "invariant_audit"

type invariantVerifier interface {
	VerifyInvariants(ctx context.Context) (*models.InvariantReport, error)
}

type violationGauge interface {
	SetInvariantViolations(dimension string, count int)
}

// AuditWorker runs overlap audits off the request path and reports what it
// finds through logs and the violations gauge.
type AuditWorker struct {
	verifier invariantVerifier
	gauge    violationGauge
	logger   *zap.Logger
	timeout  time.Duration
}

// NewAuditWorker constructs an audit worker.
func NewAuditWorker(verifier invariantVerifier, gauge violationGauge, logger *zap.Logger) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditWorker{verifier: verifier, gauge: gauge, logger: logger, timeout: time.Minute}
}

// Handle implements jobs.Handler.
func (w *AuditWorker) Handle(ctx context.Context, job jobs.Job) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	report, err := w.verifier.VerifyInvariants(ctx)
	if err != nil {
		return err
	}

	counts := map[string]int{
		models.ConflictDimensionRoom:    0,
		models.ConflictDimensionClass:   0,
		models.ConflictDimensionProgram: 0,
	}
	for _, v := range report.Violations {
		counts[v.Dimension]++
		w.logger.Error("overlap invariant violated",
			zap.String("job_id", job.ID),
			zap.String("dimension", v.Dimension),
			zap.String("key", v.Key),
			zap.Int64("first_id", v.FirstID),
			zap.Int64("second_id", v.SecondID),
		)
	}
	if w.gauge != nil {
		for dimension, count := range counts {
			w.gauge.SetInvariantViolations(dimension, count)
		}
	}

	w.logger.Info("invariant audit finished",
		zap.String("job_id", job.ID),
		zap.Int("slots", report.SlotsChecked),
		zap.Int("semesters", report.SemestersChecked),
		zap.Int("violations", len(report.Violations)),
	)
	return nil
}
