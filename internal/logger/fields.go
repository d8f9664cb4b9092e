package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Identifiers
	// ========================================================================
	KeyLocatorID      = "locator_id"      // Locator that produced an angle
	KeyTagID          = "tag_id"          // Asset tag identifier
	KeyMultilocatorID = "multilocator_id" // This service instance's identifier

	// ========================================================================
	// Correlation Window
	// ========================================================================
	KeySequence    = "sequence"    // CTE sequence number
	KeySlotIndex   = "slot_index"  // Slot index within the tag window
	KeyNumAngles   = "num_angles"  // Angles currently present in a slot
	KeyExpected    = "expected"    // Expected angle count for a slot
	KeyOldestSeq   = "oldest_seq"  // tag.oldest_sequence at time of log
	KeySeqDiff     = "seq_diff"    // Result of SequenceArithmetic.Diff
	KeyTimeStepSec = "time_step_s" // Time step fed to the estimator, seconds

	// ========================================================================
	// Transport
	// ========================================================================
	KeyTopic   = "topic"   // MQTT topic
	KeyBroker  = "broker"  // MQTT broker address
	KeyPayload = "payload" // Raw payload (debug only)

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyReason     = "reason"      // Drop/rejection reason
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// LocatorID returns a slog.Attr for a locator identifier
func LocatorID(id string) slog.Attr {
	return slog.String(KeyLocatorID, id)
}

// TagID returns a slog.Attr for an asset tag identifier
func TagID(id string) slog.Attr {
	return slog.String(KeyTagID, id)
}

// Sequence returns a slog.Attr for a CTE sequence number
func Sequence(seq int32) slog.Attr {
	return slog.Int64(KeySequence, int64(seq))
}

// SlotIndex returns a slog.Attr for a window slot index
func SlotIndex(idx int) slog.Attr {
	return slog.Int(KeySlotIndex, idx)
}

// Err returns a slog.Attr wrapping an error, or a no-op attr if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Reason returns a slog.Attr describing why an event was dropped or rejected
func Reason(format string, args ...any) slog.Attr {
	return slog.String(KeyReason, fmt.Sprintf(format, args...))
}
