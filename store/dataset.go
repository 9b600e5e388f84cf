package store

import (
	"strings"

	"github.com/justapithecus/lode/lode"
)

// NewReadDataset creates a Dataset for reading. Uses the same codec and
// layout as the write path to ensure compatibility.
func NewReadDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(hivePartitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// NewReadDatasetFS creates a read Dataset with filesystem storage.
func NewReadDatasetFS(dataset, rootPath string) (lode.Dataset, error) {
	return NewReadDataset(dataset, lode.NewFSFactory(rootPath))
}

// NewReadDatasetS3 creates a read Dataset with S3 storage.
func NewReadDatasetS3(dataset string, s3cfg S3Config) (lode.Dataset, error) {
	if err := s3cfg.Validate(); err != nil {
		return nil, err
	}

	factory, err := s3StoreFactory(s3cfg)
	if err != nil {
		return nil, err
	}

	return NewReadDataset(dataset, factory)
}

// isSessionResultSnapshot checks if a snapshot contains a session's
// terminal result record by examining file paths for the
// event_type=session_result partition.
func isSessionResultSnapshot(snap *lode.Snapshot) bool {
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, "event_type", "session_result") {
			return true
		}
	}
	return false
}

// snapshotMatchesFilter checks if a snapshot's file paths match the given
// partition key=value filter.
func snapshotMatchesFilter(snap *lode.Snapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks if a Hive-partitioned path contains an exact
// key=value segment. Segments are delimited by "/" in paths. This avoids
// substring false positives (e.g., session_id=session-1 matching
// session_id=session-10).
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
