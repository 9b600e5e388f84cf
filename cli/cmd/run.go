package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/wodscript/adapter"
	"github.com/justapithecus/wodscript/adapter/redis"
	"github.com/justapithecus/wodscript/adapter/webhook"
	"github.com/justapithecus/wodscript/cli/config"
	"github.com/justapithecus/wodscript/cli/render"
	"github.com/justapithecus/wodscript/cli/tui"
	"github.com/justapithecus/wodscript/parser"
	"github.com/justapithecus/wodscript/policy"
	"github.com/justapithecus/wodscript/runtime"
	"github.com/justapithecus/wodscript/store"
	"github.com/justapithecus/wodscript/types"
)

// runResult is the payload for wodc run's final (non-TUI) output.
type runResult struct {
	SessionID string           `json:"session_id"`
	Status    string           `json:"status"`
	Message   string           `json:"message,omitempty"`
	ElapsedMs int64            `json:"elapsed_ms"`
	Metrics   runResultMetrics `json:"metrics"`
}

type runResultMetrics struct {
	EventsReceived  int64 `json:"events_received"`
	EventsPersisted int64 `json:"events_persisted"`
	EventsDropped   int64 `json:"events_dropped"`
	BlocksPushed    int64 `json:"blocks_pushed"`
	BlocksPopped    int64 `json:"blocks_popped"`
}

// RunCommand returns the run command: compile and execute a script.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Compile and run a script",
		ArgsUsage: "<script>",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "config", Usage: "Path to wodc.yaml", Value: "wodc.yaml"},
			&cli.StringFlag{Name: "session-id", Usage: "Session ID (random if empty)"},
			&cli.StringFlag{Name: "program", Usage: "Program name, used as a storage partition key"},
			&cli.StringFlag{Name: "category", Usage: "Category, used as a storage partition key"},
			&cli.StringFlag{Name: "policy", Usage: "Ingestion policy: strict, buffered, streaming, noop", Value: "strict"},
			&cli.StringFlag{Name: "storage-backend", Usage: "Storage backend: none, fs, s3", Value: "none"},
			&cli.StringFlag{Name: "storage-dataset", Usage: "Dataset name", Value: store.DefaultDataset},
			&cli.StringFlag{Name: "storage-path", Usage: "Filesystem root (fs backend) or bucket/prefix (s3 backend)"},
			&cli.StringFlag{Name: "storage-region", Usage: "S3 region"},
			&cli.StringFlag{Name: "storage-endpoint", Usage: "S3-compatible endpoint URL"},
			&cli.BoolFlag{Name: "storage-s3-path-style", Usage: "Force S3 path-style addressing"},
			&cli.DurationFlag{Name: "drive-interval", Usage: "Headless clock drive interval", Value: 100 * time.Millisecond},
		),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("script path required: wodc run <script>", exitConfigError)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read script %q: %v", path, err), exitConfigError)
	}

	cfg := &config.Config{}
	if loaded, loadErr := config.Load(c.String("config")); loadErr == nil {
		cfg = loaded
	}

	s := parser.Parse(string(src))
	if errs := s.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return cli.Exit("script has parse errors, not running", exitConfigError)
	}

	sessionID := c.String("session-id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	meta := types.SessionMeta{SessionID: sessionID, Attempt: 1}

	sess, err := runtime.NewSession(meta, s)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot start session: %v", err), exitConfigError)
	}

	policyName := resolveString(c, cfg.Policy.Name, "policy", "strict")
	storageBackend := resolveString(c, cfg.Storage.Backend, "storage-backend", "none")

	pol, err := buildPolicy(c, cfg, sessionID, policyName, storageBackend)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot build storage policy: %v", err), exitConfigError)
	}
	sess.AttachPolicy(policyName, storageBackend, pol)

	var elapsedMs int64
	sess.Subscribe(func(e types.EventEnvelope) {
		if e.Type == types.EventTypeWorkoutCompleted {
			if ms, ok := e.Payload["elapsed_ms"].(int64); ok {
				elapsedMs = ms
			}
		}
	})

	var outcome *types.SessionOutcome
	if c.Bool("tui") {
		outcome, err = tui.RunLiveView(sess)
		if err != nil {
			return cli.Exit(fmt.Sprintf("tui error: %v", err), exitRuntimeCrash)
		}
	} else {
		outcome, err = runHeadless(sess, c.Duration("drive-interval"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("run error: %v", err), exitRuntimeCrash)
		}
	}

	notifyAdapter(c, cfg, sessionID, outcome, elapsedMs, sess.Metrics().EventsPersisted)

	r, rerr := render.NewRenderer(c)
	if rerr != nil {
		return rerr
	}

	snap := sess.Metrics()
	result := runResult{
		SessionID: sessionID,
		Status:    string(outcome.Status),
		Message:   outcome.Message,
		ElapsedMs: elapsedMs,
		Metrics: runResultMetrics{
			EventsReceived:  snap.EventsReceived,
			EventsPersisted: snap.EventsPersisted,
			EventsDropped:   snap.EventsDropped,
			BlocksPushed:    snap.BlocksPushed,
			BlocksPopped:    snap.BlocksPopped,
		},
	}

	if err := r.Render(result); err != nil {
		return err
	}

	if outcome.Status == types.OutcomeRuntimeCrash {
		return cli.Exit("", exitRuntimeCrash)
	}
	return nil
}

// runHeadless drives sess to a terminal outcome without a TUI: it starts
// the session, ticks its clock on an interval, reads scripted control
// commands from stdin if any are piped in, and cancels on SIGINT/SIGTERM.
func runHeadless(sess *runtime.Session, interval time.Duration) (*types.SessionOutcome, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sess.Run(runtime.Start()); err != nil {
		return nil, err
	}
	if sess.Outcome() != nil {
		return sess.Outcome(), nil
	}

	driver := sess.Drive(interval)
	if err := driver.Start(ctx); err != nil {
		return nil, err
	}

	inputCh := make(chan runtime.Input)
	go scanScriptedInput(os.Stdin, inputCh)

	for sess.Outcome() == nil {
		select {
		case <-ctx.Done():
			_ = sess.Run(runtime.Cancel("interrupted"))
		case in, ok := <-inputCh:
			if !ok {
				inputCh = nil
				continue
			}
			_ = sess.Run(in)
		}
	}

	driver.Stop()
	_, _ = driver.Wait()

	return sess.Outcome(), nil
}

// scanScriptedInput reads newline-delimited control commands from r and
// sends the corresponding runtime.Input on ch, closing ch at EOF. Used to
// drive a session non-interactively, e.g. in CI: "pause", "resume",
// "next", "complete_reps 5", "cancel <reason>".
func scanScriptedInput(r *os.File, ch chan<- runtime.Input) {
	defer close(ch)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "pause":
			ch <- runtime.Pause()
		case "resume":
			ch <- runtime.Resume()
		case "next":
			ch <- runtime.Next()
		case "reset_cues":
			ch <- runtime.ResetCues()
		case "complete_reps":
			n := 1
			if len(fields) > 1 {
				if parsed, err := strconv.Atoi(fields[1]); err == nil {
					n = parsed
				}
			}
			ch <- runtime.CompleteReps(n)
		case "cancel", "stop":
			reason := "stopped"
			if len(fields) > 1 {
				reason = strings.Join(fields[1:], " ")
			}
			ch <- runtime.Cancel(reason)
		}
	}
}

// notifyAdapter publishes a SessionCompletedEvent to the configured output
// adapter, if any. Adapter configuration is optional; a session runs fine
// with none configured. Failures are logged to stderr, not fatal: the
// session already reached its outcome by the time this runs.
func notifyAdapter(c *cli.Context, cfg *config.Config, sessionID string, outcome *types.SessionOutcome, elapsedMs, eventCount int64) {
	ad, err := buildAdapter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adapter config error: %v\n", err)
		return
	}
	if ad == nil {
		return
	}
	defer func() { _ = ad.Close() }()

	eventType := "workout_completed"
	if outcome.Status == types.OutcomeCancelled {
		eventType = "workout_cancelled"
	}
	event := &adapter.SessionCompletedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       eventType,
		SessionID:       sessionID,
		Program:         resolveString(c, cfg.Program, "program", ""),
		Category:        resolveString(c, cfg.Category, "category", ""),
		Day:             store.DeriveDay(time.Now()),
		Outcome:         string(outcome.Status),
		StoragePath:     resolveString(c, cfg.Storage.Path, "storage-path", ""),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Attempt:         1,
		EventCount:      eventCount,
		DurationMs:      elapsedMs,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ad.Publish(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "adapter publish failed: %v\n", err)
	}
}

// buildAdapter constructs the configured output adapter, if any. Returns
// a nil adapter and nil error when no adapter type is configured.
func buildAdapter(cfg *config.Config) (adapter.Adapter, error) {
	retries := func(fallback int) int {
		if cfg.Adapter.Retries != nil {
			return *cfg.Adapter.Retries
		}
		return fallback
	}

	switch cfg.Adapter.Type {
	case "":
		return nil, nil
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.Adapter.URL,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries(webhook.DefaultRetries),
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries(redis.DefaultRetries),
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q", cfg.Adapter.Type)
	}
}

// buildPolicy constructs the ingestion policy and its sink, if any,
// per the resolved policy and storage backend names.
func buildPolicy(c *cli.Context, cfg *config.Config, sessionID, policyName, storageBackend string) (policy.Policy, error) {
	var sink policy.Sink = policy.NewStubSink()

	if storageBackend != "none" {
		storeCfg := store.Config{
			Dataset:   resolveString(c, cfg.Storage.Dataset, "storage-dataset", store.DefaultDataset),
			Program:   resolveString(c, cfg.Program, "program", ""),
			Category:  resolveString(c, cfg.Category, "category", ""),
			Day:       store.DeriveDay(time.Now()),
			SessionID: sessionID,
			Policy:    policyName,
		}

		var client store.Client
		var err error
		switch storageBackend {
		case "fs":
			client, err = store.NewHiveClient(storeCfg, resolveString(c, cfg.Storage.Path, "storage-path", "./data"))
		case "s3":
			bucket, prefix := store.ParseS3Path(resolveString(c, cfg.Storage.Path, "storage-path", ""))
			client, err = store.NewHiveS3Client(storeCfg, store.S3Config{
				Bucket:       bucket,
				Prefix:       prefix,
				Region:       resolveString(c, cfg.Storage.Region, "storage-region", ""),
				Endpoint:     resolveString(c, cfg.Storage.Endpoint, "storage-endpoint", ""),
				UsePathStyle: resolveBool(c, cfg.Storage.S3PathStyle, "storage-s3-path-style"),
			})
		default:
			return nil, fmt.Errorf("unknown storage backend %q", storageBackend)
		}
		if err != nil {
			return nil, err
		}
		sink = store.NewSink(storeCfg, client)
	}

	switch policyName {
	case "strict":
		return policy.NewStrictPolicy(sink), nil
	case "buffered":
		return policy.NewBufferedPolicy(sink, policy.BufferedConfig{
			MaxBufferEvents: cfg.Policy.BufferEvents,
			MaxBufferBytes:  cfg.Policy.BufferBytes,
		})
	case "streaming":
		return policy.NewStreamingPolicy(sink, policy.StreamingConfig{
			FlushInterval: cfg.Policy.FlushInterval.Duration,
		})
	case "noop":
		return policy.NewNoopPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", policyName)
	}
}

// resolveString applies CLI flag > config value > fallback precedence.
func resolveString(c *cli.Context, configVal, flagName, fallback string) string {
	if c.IsSet(flagName) {
		return c.String(flagName)
	}
	if configVal != "" {
		return configVal
	}
	return fallback
}

// resolveBool applies CLI flag > config value precedence.
func resolveBool(c *cli.Context, configVal bool, flagName string) bool {
	if c.IsSet(flagName) {
		return c.Bool(flagName)
	}
	return configVal
}
