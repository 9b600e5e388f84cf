package store

import (
	"context"

	"github.com/justapithecus/wodscript/metrics"
	"github.com/justapithecus/wodscript/policy"
	"github.com/justapithecus/wodscript/types"
)

// InstrumentedSink wraps a policy.Sink and records write metrics on the
// session's collector. Each WriteEvents call increments
// store_write_success or store_write_failure.
type InstrumentedSink struct {
	inner     policy.Sink
	collector *metrics.Collector
}

// NewInstrumentedSink wraps a sink with metrics instrumentation.
func NewInstrumentedSink(inner policy.Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{inner: inner, collector: collector}
}

// WriteEvents delegates to the inner sink and records success or failure.
func (s *InstrumentedSink) WriteEvents(ctx context.Context, events []*types.EventEnvelope) error {
	err := s.inner.WriteEvents(ctx, events)
	if err != nil {
		s.collector.IncStoreWriteFailure()
	} else {
		s.collector.IncStoreWriteSuccess()
	}
	return err
}

// Close delegates to the inner sink.
func (s *InstrumentedSink) Close() error {
	return s.inner.Close()
}

// Verify InstrumentedSink implements policy.Sink.
var _ policy.Sink = (*InstrumentedSink)(nil)
