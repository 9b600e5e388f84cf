package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/justapithecus/lode/lode"
)

// ErrNoResultFound is returned when no session result record exists in the
// dataset.
var ErrNoResultFound = errors.New("no session result record found")

// QueryLatestSessionResult finds and reads the most recent session result
// record from the dataset. Filters by sessionID and program if non-empty.
// Returns the raw record map or ErrNoResultFound if none exist.
func QueryLatestSessionResult(ctx context.Context, ds lode.Dataset, sessionID, program string) (map[string]any, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, "wodscript/snapshots")
	}

	// Iterate in reverse (latest first) — snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]

		if !isSessionResultSnapshot(snap) {
			continue
		}
		if !snapshotMatchesFilter(snap, "session_id", sessionID) {
			continue
		}
		if !snapshotMatchesFilter(snap, "program", program) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("wodscript/snapshot/%s", snap.ID))
		}

		// Manifest path filtering is a coarse pre-filter; record fields are
		// authoritative (handles multi-record snapshots).
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if record["record_kind"] != RecordKindSessionResult {
				continue
			}
			if sessionID != "" && toString(record["session_id"]) != sessionID {
				continue
			}
			if program != "" && toString(record["program"]) != program {
				continue
			}
			return record, nil
		}
	}

	return nil, ErrNoResultFound
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
