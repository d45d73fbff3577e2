package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/pkg/jobs"
)

type verifierStub struct {
	report *models.InvariantReport
	err    error
}

func (v verifierStub) VerifyInvariants(context.Context) (*models.InvariantReport, error) {
	return v.report, v.err
}

type gaugeStub map[string]int

func (g gaugeStub) SetInvariantViolations(dimension string, count int) {
	g[dimension] = count
}

func TestAuditWorkerPublishesViolations(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gauge := gaugeStub{}
	worker := NewAuditWorker(verifierStub{report: &models.InvariantReport{
		SlotsChecked: 4,
		Violations: []models.InvariantViolation{
			{Dimension: models.ConflictDimensionRoom, Key: "room:1:MONDAY", FirstID: 1, SecondID: 2},
			{Dimension: models.ConflictDimensionRoom, Key: "room:1:MONDAY", FirstID: 1, SecondID: 3},
		},
	}}, gauge, zap.New(core))

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Type: InvariantAuditJob}))
	assert.Equal(t, 2, gauge[models.ConflictDimensionRoom])
	assert.Equal(t, 0, gauge[models.ConflictDimensionClass])
	assert.Equal(t, 0, gauge[models.ConflictDimensionProgram])
	assert.Equal(t, 2, logs.FilterMessage("overlap invariant violated").Len())
}

func TestAuditWorkerPropagatesErrors(t *testing.T) {
	worker := NewAuditWorker(verifierStub{err: errors.New("connection reset")}, nil, nil)
	assert.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-2"}))
}

func TestAuditWorkerAgainstCleanStore(t *testing.T) {
	f := newServiceFixture(t)
	gauge := gaugeStub{}
	worker := NewAuditWorker(f.svc, gauge, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-3"}))
	assert.Equal(t, 0, gauge[models.ConflictDimensionRoom])
}
