package service

import "time"

// schedulingMetrics receives domain counters. MetricsService implements it.
type schedulingMetrics interface {
	RecordConflict(dimension string)
	RecordIdentifierAttempt(outcome string)
	RecordCacheOperation(hit bool, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordConflict(string)                    {}
func (nopMetrics) RecordIdentifierAttempt(string)           {}
func (nopMetrics) RecordCacheOperation(bool, time.Duration) {}

func metricsOrNop(m schedulingMetrics) schedulingMetrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
