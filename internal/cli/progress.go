package cli

import (
	"context"
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/chronicle-go/internal/models"
	"github.com/raphaelgruber/chronicle-go/internal/service"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the session status
type tickMsg time.Time

// sessionUpdateMsg carries the refreshed session
type sessionUpdateMsg struct {
	session *models.BootstrapSession
	err     error
}

// sessionDone reports whether a status needs no further polling.
func sessionDone(status string) bool {
	switch status {
	case models.SessionQueued, models.SessionRunning:
		return false
	}
	return true
}

// progressModel is the bubbletea model for preview progress. Previews have
// no row-level progress counter, so the bar advances with elapsed time and
// snaps to full when the session leaves the running state.
type progressModel struct {
	svc       *service.Service
	sessionID string
	session   *models.BootstrapSession
	progress  progress.Model
	theme     Theme
	started   time.Time
	done      bool
	quitting  bool
	err       error
}

func newProgressModel(svc *service.Service, sessionID string) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		svc:       svc,
		sessionID: sessionID,
		progress:  prog,
		theme:     defaultTheme,
		started:   time.Now(),
	}
}

// Init returns the initial command (start polling).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchSession()

	case sessionUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch session: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.session = msg.session
		if sessionDone(m.session.Status) {
			m.done = true
			if m.session.Status == models.SessionFailed && m.session.Error != nil {
				m.err = fmt.Errorf("%s", *m.session.Error)
			}
			return m, tea.Quit
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.session == nil {
		return "Loading session status...\n"
	}

	// No total to divide by; creep toward 90% while the pipeline runs
	pct := float64(time.Since(m.started)) / float64(2*time.Minute)
	if pct > 0.9 {
		pct = 0.9
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.session.Status))
	progressBar := m.progress.ViewAs(pct)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s\n%s\n", status, progressBar, hint)
}

func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nPreview continues in background.\nUse 'chronicle bootstrap status %s' to check on it.\n",
			m.sessionID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Preview failed: %s\n", m.err))
	}

	if m.session != nil {
		switch m.session.Status {
		case models.SessionCancelled:
			return m.theme.hintStyle().Render("\nPreview cancelled.\n")
		case models.SessionReadyPartial:
			return m.theme.completedStyle().Render("✓ Ready for review (partial)\n")
		}
	}
	return m.theme.completedStyle().Render("✓ Ready for review\n")
}

// fetchSession polls the session state. Runs as a command to avoid blocking
// Update().
func (m progressModel) fetchSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		session, err := m.svc.GetSession(ctx, m.sessionID)
		return sessionUpdateMsg{session: session, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runSessionProgress runs the interactive progress UI for a preview.
// Returns nil on success or Ctrl+C (background), error on failure.
func runSessionProgress(svc *service.Service, sessionID string) error {
	model := newProgressModel(svc, sessionID)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}

// pollSession is the non-TTY fallback: print the status once per second
// until the session settles.
func pollSession(ctx context.Context, svc *service.Service, sessionID string) error {
	last := ""
	for {
		session, err := svc.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != last {
			fmt.Printf("status: %s\n", session.Status)
			last = session.Status
		}
		if sessionDone(session.Status) {
			if session.Status == models.SessionFailed && session.Error != nil {
				return fmt.Errorf("preview failed: %s", *session.Error)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
