package store

import (
	"context"
	"time"

	"github.com/justapithecus/wodscript/policy"
	"github.com/justapithecus/wodscript/types"
)

// DeriveDay computes the partition day from a session's start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// DefaultDataset is the default dataset name.
const DefaultDataset = "wodscript"

// Config holds storage sink configuration. All partition keys are
// required.
type Config struct {
	// Dataset is the dataset ID (default: "wodscript", overridable via
	// --storage-dataset).
	Dataset string
	// Program is the partition key for the workout program name, e.g.
	// "Cindy" or a script's declared title. Mirrors the teacher's
	// origin-system partition key, repurposed for a workout's identity
	// rather than a scrape target's.
	Program string
	// Category is the partition key for logical data type, e.g. "amrap",
	// "for-time", "emom".
	Category string
	// Day is the partition key derived from session start time
	// (YYYY-MM-DD UTC).
	Day string
	// SessionID is the partition key for the session identifier.
	SessionID string
	// Policy is the ingestion policy name (e.g. "strict", "buffered").
	Policy string
}

// Client abstracts the storage client. A real implementation connects to
// a Hive-partitioned store; stubs are used for testing.
type Client interface {
	// WriteEvents writes a batch of events. Must preserve ordering
	// within the batch.
	WriteEvents(ctx context.Context, dataset, sessionID string, events []*types.EventEnvelope) error

	// WriteResult writes a session's terminal result record.
	WriteResult(ctx context.Context, dataset, sessionID string, result *types.SessionResultFrame, completedAt time.Time) error

	// Close releases client resources.
	Close() error
}

// Sink is a storage-backed implementation of policy.Sink.
type Sink struct {
	config Config
	client Client
}

// NewSink creates a new storage sink.
func NewSink(config Config, client Client) *Sink {
	return &Sink{config: config, client: client}
}

// WriteEvents implements policy.Sink.
func (s *Sink) WriteEvents(ctx context.Context, events []*types.EventEnvelope) error {
	return s.client.WriteEvents(ctx, s.config.Dataset, s.config.SessionID, events)
}

// Close implements policy.Sink.
func (s *Sink) Close() error {
	return s.client.Close()
}

// WriteResult writes the session's terminal result record. Called once,
// after the policy's final flush, by the command layer driving a session
// to completion.
func (s *Sink) WriteResult(ctx context.Context, result *types.SessionResultFrame, completedAt time.Time) error {
	return s.client.WriteResult(ctx, s.config.Dataset, s.config.SessionID, result, completedAt)
}

// Verify Sink implements policy.Sink.
var _ policy.Sink = (*Sink)(nil)

// StubClient is a test client that accepts writes without persisting.
type StubClient struct {
	Events  []StubEventRecord
	Results []StubResultRecord
	Closed  bool
}

// StubEventRecord is a recorded event write for testing.
type StubEventRecord struct {
	Dataset   string
	SessionID string
	Events    []*types.EventEnvelope
}

// StubResultRecord is a recorded result write for testing.
type StubResultRecord struct {
	Dataset     string
	SessionID   string
	Result      *types.SessionResultFrame
	CompletedAt time.Time
}

// NewStubClient creates a new stub client.
func NewStubClient() *StubClient {
	return &StubClient{}
}

// WriteEvents implements Client.
func (c *StubClient) WriteEvents(_ context.Context, dataset, sessionID string, events []*types.EventEnvelope) error {
	c.Events = append(c.Events, StubEventRecord{Dataset: dataset, SessionID: sessionID, Events: events})
	return nil
}

// WriteResult implements Client.
func (c *StubClient) WriteResult(_ context.Context, dataset, sessionID string, result *types.SessionResultFrame, completedAt time.Time) error {
	c.Results = append(c.Results, StubResultRecord{Dataset: dataset, SessionID: sessionID, Result: result, CompletedAt: completedAt})
	return nil
}

// Close implements Client.
func (c *StubClient) Close() error {
	c.Closed = true
	return nil
}

// Verify StubClient implements Client.
var _ Client = (*StubClient)(nil)
