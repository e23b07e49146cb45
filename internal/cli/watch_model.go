package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/vigil/internal/cli/formatter"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type dayLoadedMsg struct {
	log *domain.DailyLog
	err error
	at  time.Time
}

type changedMsg struct{}

type feedClosedMsg struct{}

type watchKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Refresh, k.Quit} }
func (k watchKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// watchModel shows today's DailyLog and re-reads it from the store on
// every change notification.
type watchModel struct {
	load    func(context.Context) (*domain.DailyLog, error)
	changes <-chan struct{}
	source  string

	log      *domain.DailyLog
	err      error
	loadedAt time.Time
	live     bool

	spinner spinner.Model
	keys    watchKeyMap
	help    help.Model
}

func newWatchModel(load func(context.Context) (*domain.DailyLog, error), changes <-chan struct{}, source string) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StyleHeader
	return watchModel{
		load:    load,
		changes: changes,
		source:  source,
		live:    true,
		spinner: sp,
		keys:    defaultWatchKeys(),
		help:    help.New(),
	}
}

func (m watchModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		l, err := m.load(ctx)
		return dayLoadedMsg{log: l, err: err, at: time.Now()}
	}
}

func (m watchModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.changes; !ok {
			return feedClosedMsg{}
		}
		return changedMsg{}
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForChange(), m.spinner.Tick)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.loadCmd()
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case changedMsg:
		return m, tea.Batch(m.loadCmd(), m.waitForChange())
	case feedClosedMsg:
		m.live = false
	case dayLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.log = msg.log
			m.loadedAt = msg.at
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	var body string
	switch {
	case m.log == nil && m.err == nil:
		body = m.spinner.View() + " loading today's activity…"
	case m.log != nil:
		body = formatter.FormatDay(m.log)
	}

	status := formatter.Dim(fmt.Sprintf("updates: %s", m.source))
	if m.live {
		status = m.spinner.View() + " " + status
	} else {
		status = formatter.StyleYellow.Render("updates stopped") + formatter.Dim(" (press r to refresh)")
	}
	if !m.loadedAt.IsZero() {
		status += formatter.Dim("  last read " + m.loadedAt.Format("15:04:05"))
	}
	if m.err != nil {
		status += "\n" + formatter.StyleRed.Render("error: "+m.err.Error())
	}
	return body + "\n" + status + "\n" + m.help.View(m.keys) + "\n"
}
