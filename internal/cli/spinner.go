package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	taskLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	taskDoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	taskErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// taskState is shared between the worker goroutine and the spinner model
type taskState struct {
	mu    sync.RWMutex
	label string
	done  bool
	err   error
}

func (s *taskState) setLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
}

func (s *taskState) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.err = err
}

func (s *taskState) get() (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.label, s.done, s.err
}

type taskTickMsg time.Time

type taskModel struct {
	spinner spinner.Model
	state   *taskState
	cancel  context.CancelFunc
}

func newTaskModel(state *taskState, cancel context.CancelFunc) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return taskModel{spinner: s, state: state, cancel: cancel}
}

func taskTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return taskTickMsg(t)
	})
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, taskTickCmd())
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskTickMsg:
		if _, done, _ := m.state.get(); done {
			return m, tea.Quit
		}
		return m, taskTickCmd()
	}

	return m, nil
}

func (m taskModel) View() string {
	label, done, err := m.state.get()
	switch {
	case done && err != nil:
		return fmt.Sprintf("  %s %s\n", taskErrStyle.Render("✗"), label)
	case done:
		return fmt.Sprintf("  %s %s\n", taskDoneStyle.Render("✓"), label)
	}
	return fmt.Sprintf("  %s %s\n", m.spinner.View(), taskLabelStyle.Render(label))
}

// runTask runs fn behind a spinner on stderr. The spinner is skipped for
// JSON output and when stderr is not a terminal.
func runTask(cmd *cobra.Command, label string, fn func(ctx context.Context, setLabel func(string)) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if jsonOutput || !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn(ctx, func(string) {})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &taskState{label: label}
	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, state.setLabel)
		state.finish(err)
		errCh <- err
	}()

	p := tea.NewProgram(newTaskModel(state, cancel), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}

	// on ctrl+c the worker sees the cancelled context and returns
	return <-errCh
}
