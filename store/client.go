package store

import (
	"context"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/wodscript/types"
)

// hivePartitionKeys is the Hive layout's partition dimensions, shared by
// every dataset this package opens for read or write.
var hivePartitionKeys = []string{"program", "category", "day", "session_id", "event_type"}

// HiveClient is a github.com/justapithecus/lode-backed implementation of
// Client, writing events and session results into Hive-partitioned
// storage.
type HiveClient struct {
	dataset lode.Dataset
	config  Config

	mu sync.Mutex
}

// NewHiveClient creates a new Hive client with filesystem storage. root is
// the base directory for Hive-partitioned storage.
func NewHiveClient(cfg Config, root string) (*HiveClient, error) {
	return NewHiveClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewHiveClientWithFactory creates a new Hive client with a custom store
// factory. Use lode.NewMemoryFactory() for testing.
func NewHiveClientWithFactory(cfg Config, factory lode.StoreFactory) (*HiveClient, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout(hivePartitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}

	return &HiveClient{dataset: ds, config: cfg}, nil
}

// WriteEvents writes a batch of events to the dataset, partitioned by
// event_type within the session's program/category/day/session_id
// partition.
func (c *HiveClient) WriteEvents(ctx context.Context, dataset, sessionID string, events []*types.EventEnvelope) error {
	if len(events) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]any, 0, len(events))
	for _, e := range events {
		records = append(records, toEventRecordMap(e, c.config))
	}

	if _, err := c.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.config.Dataset)
	}
	return nil
}

// WriteResult writes the session's terminal result record to the
// event_type=session_result partition.
func (c *HiveClient) WriteResult(ctx context.Context, dataset, sessionID string, result *types.SessionResultFrame, completedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	record := toSessionResultRecordMap(result, sessionID, completedAt.UTC().Format(time.RFC3339), c.config)
	if _, err := c.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.config.Dataset)
	}
	return nil
}

// Close releases client resources.
func (c *HiveClient) Close() error {
	return nil
}

// Verify HiveClient implements Client.
var _ Client = (*HiveClient)(nil)
