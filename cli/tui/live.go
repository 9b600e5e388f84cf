// Package tui provides Bubble Tea TUI components for the wodc CLI.
//
// TUI is opt-in only (--tui flag on wodc run) and drives exactly one
// view: the live workout clock. Every other command renders through
// package render instead.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/wodscript/runtime"
	"github.com/justapithecus/wodscript/types"
)

// tickInterval is how often the live view advances the session's clock.
// Matches clock.DefaultDriveInterval; kept as a local constant since the
// TUI drives the session through Bubble Tea's own tick loop rather than
// clock.Driver's goroutine.
const tickInterval = 100 * time.Millisecond

// keyMap binds the keys the live view accepts. Space toggles pause/
// resume; n forces the current block's next turn; r records reps
// against the current effort; c cancels the workout; q closes the view
// without cancelling, after which nothing drives the session further.
type keyMap struct {
	Pause  key.Binding
	Next   key.Binding
	Reps   key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Pause:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	Next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
	Reps:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "+1 rep")),
	Cancel: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// eventMsg wraps one event envelope published by the session.
type eventMsg types.EventEnvelope

// liveState is the display state the model derives from the event
// stream. It never reads the session's internals directly; everything
// shown here comes from events the session itself published.
type liveState struct {
	effortLabel   string
	repsCompleted int
	repsTarget    int
	round         int
	totalRounds   int
	remainingMs   int64
	direction     string
	paused        bool
	blockDepth    int
	lastLine      int
	terminal      *types.SessionOutcome
}

// Model is the Bubble Tea model for the live workout view.
type Model struct {
	sess   *runtime.Session
	events chan types.EventEnvelope
	state  liveState
	err    error
}

// RunLiveView starts sess (via Input Start) and drives a full-screen
// Bubble Tea program over it until the session reaches a terminal
// outcome or the user quits. sess must not have been started yet.
func RunLiveView(sess *runtime.Session) (*types.SessionOutcome, error) {
	events := make(chan types.EventEnvelope, 256)
	sess.Subscribe(func(e types.EventEnvelope) {
		events <- e
	})

	m := &Model{sess: sess, events: events}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return sess.Outcome(), nil
}

// Init starts the session and kicks off the event-listening and
// clock-ticking loops.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startSession, waitForEvent(m.events), tickCmd())
}

func (m *Model) startSession() tea.Msg {
	if err := m.sess.Run(runtime.Start()); err != nil {
		return errMsg{err}
	}
	return nil
}

// tickMsg drives one clock advance per firing.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForEvent blocks on the session's event channel and wraps the next
// envelope as a tea.Msg. Re-armed after every Update call that consumes
// an eventMsg, so the program keeps draining the channel one event at a
// time instead of polling.
func waitForEvent(events chan types.EventEnvelope) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

type errMsg struct{ err error }

// Update applies one event or key press to the display state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		return m, tea.Quit

	case eventMsg:
		env := types.EventEnvelope(msg)
		m.applyEvent(env)
		if env.Type.IsTerminal() {
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case tickMsg:
		if m.state.terminal != nil {
			return m, nil
		}
		_ = m.sess.Tick()
		return m, tickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			if m.state.paused {
				_ = m.sess.Run(runtime.Resume())
				m.state.paused = false
			} else {
				_ = m.sess.Run(runtime.Pause())
				m.state.paused = true
			}
		case key.Matches(msg, keys.Next):
			_ = m.sess.Run(runtime.Next())
		case key.Matches(msg, keys.Reps):
			_ = m.sess.Run(runtime.CompleteReps(1))
		case key.Matches(msg, keys.Cancel):
			_ = m.sess.Run(runtime.Cancel("user cancelled"))
		}
	}
	return m, nil
}

func (m *Model) applyEvent(env types.EventEnvelope) {
	switch env.Type {
	case types.EventTypeBlockPushed:
		if depth, ok := env.Payload["depth"].(int); ok {
			m.state.blockDepth = depth
		} else if depth, ok := env.Payload["depth"].(float64); ok {
			m.state.blockDepth = int(depth)
		}
	case types.EventTypeTimerStarted, types.EventTypeTimerTick, types.EventTypeTimerComplete:
		if ms, ok := numeric(env.Payload["remaining_ms"]); ok {
			m.state.remainingMs = ms
		}
		if dir, ok := env.Payload["direction"].(string); ok {
			m.state.direction = dir
		}
	case types.EventTypeLoopRoundAdvance:
		if round, ok := numeric(env.Payload["round"]); ok {
			m.state.round = int(round)
		}
		if total, ok := numeric(env.Payload["total_rounds"]); ok {
			m.state.totalRounds = int(total)
		}
	case types.EventTypeEffortSet, types.EventTypeEffortReps, types.EventTypeEffortComplete:
		if label, ok := env.Payload["label"].(string); ok {
			m.state.effortLabel = label
		}
		if reps, ok := numeric(env.Payload["reps_completed"]); ok {
			m.state.repsCompleted = int(reps)
		}
		if target, ok := numeric(env.Payload["reps_target"]); ok {
			m.state.repsTarget = int(target)
		}
	case types.EventTypeSpanClosed:
		if line, ok := numeric(env.Payload["line"]); ok {
			m.state.lastLine = int(line)
		}
	case types.EventTypeWorkoutCompleted:
		m.state.terminal = &types.SessionOutcome{Status: types.OutcomeCompleted}
	case types.EventTypeWorkoutCancelled:
		reason, _ := env.Payload["reason"].(string)
		m.state.terminal = &types.SessionOutcome{Status: types.OutcomeCancelled, Message: reason}
	case types.EventTypeRuntimeError:
		message, _ := env.Payload["message"].(string)
		m.state.terminal = &types.SessionOutcome{Status: types.OutcomeRuntimeCrash, Message: message}
	}
}

func numeric(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// View renders the current display state.
func (m *Model) View() string {
	s := m.state

	title := TitleStyle.Render(fmt.Sprintf("wodscript (depth %d)", s.blockDepth))

	clock := fmt.Sprintf("%s", formatMs(s.remainingMs))
	if s.direction == "countdown" {
		clock = "-" + clock
	}
	clockBox := StatBoxStyle.Render(
		lipgloss.JoinVertical(lipgloss.Center, StatLabelStyle.Render("TIME"), StatValueStyle.Render(clock)),
	)

	roundLabel := "ROUND"
	roundValue := "-"
	if s.round > 0 {
		if s.totalRounds > 0 {
			roundValue = fmt.Sprintf("%d/%d", s.round, s.totalRounds)
		} else {
			roundValue = fmt.Sprintf("%d", s.round)
		}
	}
	roundBox := StatBoxStyle.Render(
		lipgloss.JoinVertical(lipgloss.Center, StatLabelStyle.Render(roundLabel), StatValueStyle.Render(roundValue)),
	)

	effortValue := s.effortLabel
	if effortValue == "" {
		effortValue = "-"
	}
	if s.repsTarget > 0 {
		effortValue = fmt.Sprintf("%s (%d/%d)", effortValue, s.repsCompleted, s.repsTarget)
	} else if s.repsCompleted > 0 {
		effortValue = fmt.Sprintf("%s (%d)", effortValue, s.repsCompleted)
	}
	effortBox := StatBoxStyle.Render(
		lipgloss.JoinVertical(lipgloss.Center, StatLabelStyle.Render("EFFORT"), StatValueStyle.Render(effortValue)),
	)

	stats := lipgloss.JoinHorizontal(lipgloss.Top, clockBox, roundBox, effortBox)

	status := ""
	if s.paused {
		status = WarningStyle.Render("paused")
	}
	if s.terminal != nil {
		status = StateStyle(string(s.terminal.Status)).Render(string(s.terminal.Status))
	}

	helpText := "space pause/resume  n next  r +1 rep  c cancel  q quit"
	if s.lastLine > 0 {
		helpText = fmt.Sprintf("line %d  %s", s.lastLine, helpText)
	}
	help := HelpStyle.Render(helpText)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, stats, status, help))
}

func formatMs(ms int64) string {
	if ms < 0 {
		ms = -ms
	}
	total := ms / 1000
	minutes := total / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
