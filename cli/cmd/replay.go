package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/lode/lode"
	"github.com/justapithecus/wodscript/cli/render"
	"github.com/justapithecus/wodscript/store"
)

// eventRecordView is the rendered form of one persisted event record.
type eventRecordView struct {
	Seq      int64          `json:"seq"`
	Type     string         `json:"type"`
	Ts       string         `json:"ts"`
	BlockKey string         `json:"block_key,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// replayResult is the payload for wodc replay: the session's ordered event
// log plus a derived summary and, if present, its terminal result record.
type replayResult struct {
	SessionID string            `json:"session_id"`
	Events    []eventRecordView `json:"events"`
	Summary   replaySummary     `json:"summary"`
	Result    map[string]any    `json:"result,omitempty"`
}

// replaySummary re-derives the span and metric totals a live session would
// have reported, from the persisted event log alone.
type replaySummary struct {
	EventCount     int            `json:"event_count"`
	EventCounts    map[string]int `json:"event_counts"`
	SpansClosed    []int          `json:"spans_closed,omitempty"`
	RoundsAdvanced int            `json:"rounds_advanced"`
	FirstTs        string         `json:"first_ts,omitempty"`
	LastTs         string         `json:"last_ts,omitempty"`
	TerminatedBy   string         `json:"terminated_by,omitempty"`
}

// ReplayCommand returns the replay command. It reads a session's persisted
// event log back from storage; it never executes a script.
func ReplayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "Print a persisted session's event log and summary",
		ArgsUsage: "<path>",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "Dataset name",
				Value: store.DefaultDataset,
			},
			&cli.StringFlag{
				Name:     "session",
				Usage:    "Session ID to replay",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "program",
				Usage: "Filter by program name",
			},
		),
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for replay command", exitConfigError)
	}

	root := c.Args().First()
	if root == "" {
		return cli.Exit("storage path required: wodc replay <path>", exitConfigError)
	}

	sessionID := c.String("session")
	dataset := c.String("dataset")
	program := c.String("program")

	ds, err := store.NewReadDatasetFS(dataset, root)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open dataset at %q: %v", root, err), exitConfigError)
	}

	ctx := context.Background()

	records, err := readSessionEvents(ctx, ds, sessionID, program)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read session events: %v", err), exitConfigError)
	}
	if len(records) == 0 {
		return cli.Exit(fmt.Sprintf("no events found for session %q", sessionID), exitConfigError)
	}

	var resultRecord map[string]any
	latest, err := store.QueryLatestSessionResult(ctx, ds, sessionID, program)
	switch {
	case err == nil:
		resultRecord = latest
	case errors.Is(err, store.ErrNoResultFound):
		// No terminal result yet; the session may still be in progress.
	default:
		return cli.Exit(fmt.Sprintf("cannot read session result: %v", err), exitConfigError)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	return r.Render(replayResult{
		SessionID: sessionID,
		Events:    records,
		Summary:   summarizeEvents(records, resultRecord),
		Result:    resultRecord,
	})
}

// readSessionEvents gathers every event record for sessionID across all
// snapshots, ordered by sequence number. Snapshot file-path filtering is a
// coarse pre-filter; record fields are authoritative.
func readSessionEvents(ctx context.Context, ds lode.Dataset, sessionID, program string) ([]eventRecordView, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	var out []eventRecordView
	for _, snap := range snapshots {
		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, err
		}

		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if record["record_kind"] != store.RecordKindEvent {
				continue
			}
			if toStr(record["session_id"]) != sessionID {
				continue
			}
			if program != "" && toStr(record["program"]) != program {
				continue
			}

			payload, _ := record["payload"].(map[string]any)
			out = append(out, eventRecordView{
				Seq:      toInt64(record["seq"]),
				Type:     toStr(record["type"]),
				Ts:       toStr(record["ts"]),
				BlockKey: toStr(record["block_key"]),
				Payload:  payload,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// summarizeEvents re-derives span and metric totals from an ordered event
// log, independent of any live runtime.Session.
func summarizeEvents(events []eventRecordView, result map[string]any) replaySummary {
	summary := replaySummary{
		EventCount:  len(events),
		EventCounts: make(map[string]int),
	}

	for i, e := range events {
		summary.EventCounts[e.Type]++

		if i == 0 {
			summary.FirstTs = e.Ts
		}
		summary.LastTs = e.Ts

		switch e.Type {
		case "span:closed":
			if line, ok := e.Payload["line"]; ok {
				summary.SpansClosed = append(summary.SpansClosed, int(toInt64(line)))
			}
		case "loop:round-advanced":
			summary.RoundsAdvanced++
		case "workout:completed", "workout:cancelled", "runtime:error":
			summary.TerminatedBy = e.Type
		}
	}

	if summary.TerminatedBy == "" && result != nil {
		summary.TerminatedBy = toStr(result["status"])
	}

	return summary
}

// toStr converts a value to string, returning empty string for nil/non-string.
func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// toInt64 converts a value to int64. Records read back from JSONL decode
// numbers as float64; seq and other numeric fields are narrowed here.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
