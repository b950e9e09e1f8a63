package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gamesops/gamesdb-go/gamesdb"
)

const (
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "store operation: "
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgCapacityConflict   = "journey capacity conflict detected"
	logMsgRollbackFailed     = "failed to roll back transaction"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"
	logAttrOperation  = "operation"

	metricOperationDuration = "gamesdb_operation_duration_seconds"
	metricStoreErrors       = "gamesdb_store_errors_total"
	metricCapacityConflicts = "gamesdb_capacity_conflicts_total"

	spanAttrOperation  = "operation"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"

	statusSuccess = "success"
	statusError   = "error"
)

// logQueryWithDuration logs SQL queries with execution time at debug level.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical issues at warn level.
func (s *Store) logWarn(ctx context.Context, message string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(message, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logError logs error information at the error level.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// errorTypeOf maps an operation error to a stable label for metrics and spans.
func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, gamesdb.ErrNotFound):
		return "not_found"
	case errors.Is(err, gamesdb.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, gamesdb.ErrStaffNotFound):
		return "staff_not_found"
	case errors.Is(err, gamesdb.ErrJourneyNotFound):
		return "journey_not_found"
	case errors.Is(err, gamesdb.ErrAmbiguousJourney):
		return "ambiguous_journey"
	case errors.Is(err, gamesdb.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, gamesdb.ErrBookingWriteFailed):
		return "booking_write_failed"
	case errors.Is(err, gamesdb.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, gamesdb.ErrBuildingQueryFailed):
		return "building_query_failed"
	case errors.Is(err, gamesdb.ErrScanningDBRowFailed):
		return "scanning_row_failed"
	case errors.Is(err, gamesdb.ErrQueryFailed):
		return "query_failed"
	default:
		return "unknown"
	}
}

// operationObserver bundles the logging, metrics, and tracing lifecycle of
// one public operation so the operations themselves stay readable.
type operationObserver struct {
	s     *Store
	ctx   context.Context
	name  string
	span  SpanContext
	start time.Time
}

// beginOperation starts the observer and, when tracing is configured, a span
// for the operation. The returned context carries the span.
func (s *Store) beginOperation(ctx context.Context, name string) (*operationObserver, context.Context) {
	o := &operationObserver{
		s:     s,
		ctx:   ctx,
		name:  name,
		start: time.Now(),
	}

	if s.tracingCollector != nil {
		attrs := map[string]string{spanAttrOperation: name}
		ctx, o.span = s.tracingCollector.StartSpan(ctx, name, attrs)
		o.ctx = ctx
	}

	return o, o.ctx
}

// succeed records a successful operation: an info log line with the given
// attributes, a duration metric, and a finished span.
func (o *operationObserver) succeed(args ...any) {
	duration := time.Since(o.start)

	allArgs := append([]any{logAttrDurationMS, toMilliseconds(duration)}, args...)
	o.s.logOperation(o.ctx, o.name, allArgs...)

	if o.s.metricsCollector != nil {
		labels := map[string]string{spanAttrOperation: o.name, "status": statusSuccess}
		o.s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}

	o.finishSpan(statusSuccess, map[string]string{
		spanAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	})
}

// fail records a failed operation: a duration metric with error status, an
// error counter, and a finished span carrying the error type.
func (o *operationObserver) fail(err error) {
	duration := time.Since(o.start)
	errorType := errorTypeOf(err)

	if o.s.metricsCollector != nil {
		labels := map[string]string{spanAttrOperation: o.name, "status": statusError, spanAttrErrorType: errorType}
		o.s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
		o.s.metricsCollector.IncrementCounter(metricStoreErrors, labels)
	}

	o.finishSpan(statusError, map[string]string{spanAttrErrorType: errorType})
}

// capacityConflict records the one conflict outcome worth its own counter:
// a booking attempt that observed a full journey.
func (o *operationObserver) capacityConflict() {
	o.s.logOperation(o.ctx, o.name, logAttrOperation, logMsgCapacityConflict)

	if o.s.metricsCollector != nil {
		labels := map[string]string{spanAttrOperation: o.name, "conflict_type": "capacity"}
		o.s.metricsCollector.IncrementCounter(metricCapacityConflicts, labels)
	}
}

func (o *operationObserver) finishSpan(status string, attrs map[string]string) {
	if o.s.tracingCollector == nil || o.span == nil {
		return
	}

	o.span.SetStatus(status)
	for key, value := range attrs {
		o.span.AddAttribute(key, value)
	}

	o.s.tracingCollector.FinishSpan(o.span, status, attrs)
}
