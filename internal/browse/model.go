// Package browse renders a data view as an interactive terminal grid with a
// search box.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/logger"
	"github.com/user/rowview/internal/search"
)

const (
	minColumnWidth = 4
	maxColumnWidth = 40
	chromeHeight   = 7
	defaultHeight  = 15
)

// viewChangedMsg tells the model the view recomputed.
type viewChangedMsg struct{}

// loadErrMsg carries a failed initial load.
type loadErrMsg struct{ err error }

// LoadFunc fills the view for the first time.
type LoadFunc func() error

// Option configures a Model.
type Option func(*settings)

type settings struct {
	title string
	load  LoadFunc
	log   logger.Logger
}

// WithTitle sets the heading shown above the search box.
func WithTitle(title string) Option {
	return func(s *settings) { s.title = title }
}

// WithLoader sets the function run when the program starts.
func WithLoader(fn LoadFunc) Option {
	return func(s *settings) { s.load = fn }
}

// WithLogger sets the model logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// Model is the bubbletea model of the browser.
type Model[T any] struct {
	view  *dataview.View[T]
	ctrl  *search.Controller
	cols  dataview.Columns[T]
	input textinput.Model
	table table.Model
	opts  settings

	// changed holds at most one pending change signal from the view.
	changed     chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	unsubscribe func()

	snap     dataview.Snapshot[T]
	active   int
	message  string
	quitting bool
}

// New creates a browser over view. Keystrokes in the search box go to ctrl,
// whose target is expected to filter the same view.
func New[T any](view *dataview.View[T], ctrl *search.Controller, opts ...Option) *Model[T] {
	s := settings{log: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}

	input := textinput.New()
	input.Placeholder = "search"
	input.Prompt = promptStyle.Render("/ ")
	input.Focus()

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(defaultHeight),
		table.WithStyles(tableStyles()),
	)

	m := &Model[T]{
		view:    view,
		ctrl:    ctrl,
		cols:    view.Columns(),
		input:   input,
		table:   t,
		opts:    s,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
		snap:    view.Snapshot(),
	}
	m.unsubscribe = view.Subscribe(func(dataview.Snapshot[T]) {
		select {
		case m.changed <- struct{}{}:
		default:
		}
	})
	m.refreshTable()
	return m
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run[T any](ctx context.Context, m *Model[T]) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.shutdown()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

func (m *Model[T]) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForChange}
	if m.opts.load != nil {
		cmds = append(cmds, m.loadCmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model[T]) waitForChange() tea.Msg {
	select {
	case <-m.changed:
		return viewChangedMsg{}
	case <-m.done:
		return nil
	}
}

func (m *Model[T]) loadCmd() tea.Msg {
	if err := m.opts.load(); err != nil {
		return loadErrMsg{err: err}
	}
	return nil
}

func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewChangedMsg:
		m.snap = m.view.Snapshot()
		m.refreshTable()
		return m, m.waitForChange

	case loadErrMsg:
		m.opts.log.Error("load failed", "error", msg.err)
		m.message = msg.err.Error()
		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.input.Width = max(msg.Width-4, 10)
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		m.refreshTable()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model[T]) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		m.shutdown()
		return m, tea.Quit

	case "esc":
		m.input.SetValue("")
		m.ctrl.OnValueChange("")
		return m, nil

	case "enter":
		m.ctrl.Flush()
		return m, nil

	case "tab":
		m.moveActive(1)
		return m, nil

	case "shift+tab":
		m.moveActive(-1)
		return m, nil

	case "ctrl+s":
		m.toggleSort()
		return m, nil

	case "up", "down", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.ctrl.OnValueChange(after)
	}
	return m, cmd
}

func (m *Model[T]) moveActive(step int) {
	n := len(m.cols)
	m.active = ((m.active+step)%n + n) % n
	m.message = ""
	m.refreshTable()
}

func (m *Model[T]) toggleSort() {
	col := m.cols[m.active]
	if _, err := m.view.ToggleSort(col.Key); err != nil {
		if errors.Is(err, dataview.ErrNotSortable) {
			m.message = fmt.Sprintf("%s is not sortable", col.Title())
			return
		}
		m.message = err.Error()
		return
	}
	m.message = ""
}

// shutdown stops input delivery, detaches from the view and releases a
// pending waitForChange. It is safe to call more than once.
func (m *Model[T]) shutdown() {
	m.stopOnce.Do(func() {
		m.ctrl.Close()
		m.unsubscribe()
		close(m.done)
	})
}

// refreshTable rebuilds headers and rows from the current snapshot.
func (m *Model[T]) refreshTable() {
	widths := make([]int, len(m.cols))
	titles := make([]string, len(m.cols))
	for i := range m.cols {
		titles[i] = headerTitle(&m.cols[i], m.snap.Sort, i == m.active)
		widths[i] = max(lipgloss.Width(titles[i]), minColumnWidth)
	}

	rows := make([]table.Row, len(m.snap.Rows))
	for r, rec := range m.snap.Rows {
		row := make(table.Row, len(m.cols))
		for i := range m.cols {
			row[i] = m.cols[i].Value(rec)
			widths[i] = max(widths[i], min(lipgloss.Width(row[i]), maxColumnWidth))
		}
		rows[r] = row
	}

	columns := make([]table.Column, len(m.cols))
	for i := range m.cols {
		columns[i] = table.Column{Title: titles[i], Width: widths[i]}
	}

	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

// headerTitle marks the active column with a caret.
func headerTitle[T any](col *dataview.Column[T], spec dataview.SortSpec, active bool) string {
	title := dataview.HeaderLabel(col, spec)
	if active {
		return "›" + title
	}
	return title
}

func (m *Model[T]) statusLine() string {
	if m.message != "" {
		return errorStyle.Render(m.message)
	}
	if !m.snap.Loaded {
		return statusStyle.Render("loading…")
	}

	parts := []string{fmt.Sprintf("%d/%d rows", len(m.snap.Rows), m.snap.Total)}
	if q := m.input.Value(); q != "" {
		parts = append(parts, fmt.Sprintf("query %q", q))
	}
	if m.ctrl.Pending() {
		parts = append(parts, "typing…")
	}
	if len(m.snap.Sort) > 0 {
		parts = append(parts, "sort "+m.snap.Sort.String())
	}
	if m.ctrl.Mode() == search.ModeLazy {
		parts = append(parts, fmt.Sprintf("lazy %s", m.ctrl.QuietPeriod()))
	} else {
		parts = append(parts, "eager")
	}
	return statusStyle.Render(strings.Join(parts, " · "))
}

func (m *Model[T]) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.opts.title != "" {
		b.WriteString(titleStyle.Render(m.opts.title))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if m.snap.NoMatches() {
		b.WriteString(emptyStyle.Render("no matches"))
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter search now · esc clear · tab column · ctrl+s sort · ctrl+c quit"))
	return b.String()
}
