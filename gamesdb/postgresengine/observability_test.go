package postgresengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

// recordingLogger captures Logger calls by level.
type recordingLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.debugMsgs = append(l.debugMsgs, msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.infoMsgs = append(l.infoMsgs, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warnMsgs = append(l.warnMsgs, msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.errorMsgs = append(l.errorMsgs, msg) }

// recordingMetrics captures MetricsCollector calls.
type recordingMetrics struct {
	durations []string
	counters  []string
	labels    []map[string]string
}

func (m *recordingMetrics) RecordDuration(metric string, _ time.Duration, labels map[string]string) {
	m.durations = append(m.durations, metric)
	m.labels = append(m.labels, labels)
}

func (m *recordingMetrics) IncrementCounter(metric string, labels map[string]string) {
	m.counters = append(m.counters, metric)
	m.labels = append(m.labels, labels)
}

func (m *recordingMetrics) RecordValue(string, float64, map[string]string) {}

// recordingSpan and recordingTracer capture the span lifecycle.
type recordingSpan struct {
	status string
	attrs  map[string]string
}

func (s *recordingSpan) SetStatus(status string) { s.status = status }
func (s *recordingSpan) AddAttribute(key, value string) {
	if s.attrs == nil {
		s.attrs = map[string]string{}
	}
	s.attrs[key] = value
}

type recordingTracer struct {
	started  []string
	finished []string
}

func (t *recordingTracer) StartSpan(ctx context.Context, name string, _ map[string]string) (context.Context, SpanContext) {
	t.started = append(t.started, name)
	return ctx, &recordingSpan{}
}

func (t *recordingTracer) FinishSpan(_ SpanContext, status string, _ map[string]string) {
	t.finished = append(t.finished, status)
}

func observedStore(t *testing.T, db *fakeDB) (*Store, *recordingLogger, *recordingMetrics, *recordingTracer) {
	t.Helper()

	logger := &recordingLogger{}
	metrics := &recordingMetrics{}
	tracer := &recordingTracer{}

	store, err := newStore(db,
		WithLogger(logger),
		WithMetrics(metrics),
		WithTracing(tracer),
	)
	require.NoError(t, err)

	return store, logger, metrics, tracer
}

func Test_Observability_When_OperationSucceeds(t *testing.T) {
	db := newFakeDB(
		rowsStep([]any{1, "Athletics", "Track"}),
	)
	store, logger, metrics, tracer := observedStore(t, db)

	_, err := store.ListSports(context.Background())
	require.NoError(t, err)

	assert.Contains(t, logger.debugMsgs, logMsgSQLExecuted+opListSports)
	assert.Contains(t, logger.infoMsgs, logMsgOperation+opListSports)
	assert.Contains(t, metrics.durations, metricOperationDuration)
	assert.Equal(t, []string{opListSports}, tracer.started)
	assert.Equal(t, []string{statusSuccess}, tracer.finished)
}

func Test_Observability_When_OperationFails(t *testing.T) {
	db := newFakeDB(
		rowsStep(), // member missing
	)
	store, _, metrics, tracer := observedStore(t, db)

	_, err := store.GetMemberDetails(context.Background(), "NOBODY")
	require.ErrorIs(t, err, gamesdb.ErrNotFound)

	assert.Contains(t, metrics.counters, metricStoreErrors)
	assert.Equal(t, []string{statusError}, tracer.finished)

	foundErrorType := false
	for _, labels := range metrics.labels {
		if labels[spanAttrErrorType] == "not_found" {
			foundErrorType = true
		}
	}
	assert.True(t, foundErrorType, "error metrics must carry the error type label")
}

func Test_Observability_When_CapacityConflictOccurs(t *testing.T) {
	db := newFakeDB(
		rowsStep([]any{"S000001"}),
		rowsStep([]any{7, 40, 40}),
	)
	store, _, metrics, _ := observedStore(t, db)

	_, err := store.Book(context.Background(), "S000001", "A000001", "BUS041", departure)
	require.ErrorIs(t, err, gamesdb.ErrCapacityExceeded)

	assert.Contains(t, metrics.counters, metricCapacityConflicts)
}

func Test_Observability_When_NoCollectorsAreConfigured(t *testing.T) {
	db := newFakeDB(
		rowsStep([]any{1, "Athletics", "Track"}),
	)
	store := newTestStore(db)

	_, err := store.ListSports(context.Background())

	assert.NoError(t, err, "operations must work without any observability configured")
}
