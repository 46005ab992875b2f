package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/sharetext/internal/core/i18n"
)

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// downloadState is shared between the download goroutine and the TUI
type downloadState struct {
	mu        sync.RWMutex
	current   int64
	total     int64
	speed     float64
	done      bool
	err       error
	startTime time.Time
	endTime   time.Time
}

func (s *downloadState) update(current, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	s.total = total
	if elapsed := time.Since(s.startTime).Seconds(); elapsed > 0 {
		s.speed = float64(current) / elapsed
	}
}

func (s *downloadState) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endTime = time.Now()
	s.err = err
	s.done = true
}

func (s *downloadState) get() (current, total int64, speed float64, done bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.total, s.speed, s.done, s.err
}

func (s *downloadState) elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endTime.IsZero() {
		return time.Since(s.startTime)
	}
	return s.endTime.Sub(s.startTime)
}

type tickMsg time.Time

type downloadModel struct {
	progress progress.Model
	spinner  spinner.Model
	t        *i18n.Translations
	output   string
	title    string
	state    *downloadState
	cancel   context.CancelFunc
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m downloadModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case tickMsg:
		current, total, _, done, _ := m.state.get()
		if done {
			return m, tea.Quit
		}
		cmds := []tea.Cmd{tickCmd()}
		if total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(current)/float64(total)))
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m downloadModel) View() string {
	current, total, speed, done, err := m.state.get()

	if err != nil {
		return fmt.Sprintf("\n  %s %s: %v\n\n", errStyle.Render("✗"), m.t.Download.Failed, err)
	}

	if done {
		displayPath := m.output
		if abs, err := filepath.Abs(displayPath); err == nil {
			displayPath = abs
		}
		elapsed := m.state.elapsed()
		var avg float64
		if elapsed > 0 {
			avg = float64(current) / elapsed.Seconds()
		}
		return fmt.Sprintf("\n  %s %s\n  %s: %s (%s)\n  %s: %s  |  %s: %s/s\n\n",
			doneStyle.Render("✓"), m.t.Download.Completed,
			m.t.Download.FileSaved, displayPath, FormatBytes(current),
			m.t.Download.Elapsed, FormatDuration(elapsed),
			m.t.Download.AvgSpeed, FormatBytes(int64(avg)),
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s %s: %s\n\n", m.spinner.View(), m.t.Download.Downloading, infoStyle.Render(m.title))
	fmt.Fprintf(&b, "  %s\n\n", m.progress.View())
	if total > 0 {
		fmt.Fprintf(&b, "  %s/%s  |  %s: %s/s  |  %s: %s\n",
			FormatBytes(current), FormatBytes(total),
			m.t.Download.Speed, FormatBytes(int64(speed)),
			m.t.Download.ETA, calculateETA(total-current, speed),
		)
	} else {
		fmt.Fprintf(&b, "  %s  |  %s: %s/s\n", FormatBytes(current), m.t.Download.Speed, FormatBytes(int64(speed)))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  Press q to cancel"))
	b.WriteString("\n")
	return b.String()
}

func calculateETA(remaining int64, speed float64) string {
	if speed <= 0 {
		return "??:??"
	}
	return FormatDuration(time.Duration(float64(remaining)/speed) * time.Second)
}

// RunDownloadTUI downloads url to output while rendering a progress bar
func RunDownloadTUI(ctx context.Context, d *Downloader, url, output, title, lang string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := &downloadState{startTime: time.Now()}
	go func() {
		_, err := d.Download(ctx, url, output, state.update)
		state.finish(err)
	}()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	model := downloadModel{
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		spinner:  s,
		t:        i18n.T(lang),
		output:   output,
		title:    title,
		state:    state,
		cancel:   cancel,
	}

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return err
	}

	_, _, _, done, err := state.get()
	if !done {
		return context.Canceled
	}
	return err
}
