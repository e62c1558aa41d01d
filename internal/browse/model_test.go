package browse

import (
	"cmp"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/rowview/internal/dataview"
	"github.com/user/rowview/internal/search"
)

type contact struct {
	ID    int
	Name  string
	Email string
}

func contactColumns() []dataview.Column[contact] {
	return []dataview.Column[contact]{
		{
			Key:      "id",
			Header:   "ID",
			Value:    func(c contact) string { return strconv.Itoa(c.ID) },
			Compare:  func(a, b contact) int { return cmp.Compare(a.ID, b.ID) },
			Sortable: true,
		},
		{Key: "name", Header: "Name", Value: func(c contact) string { return c.Name }, Sortable: true, Searchable: true},
		{Key: "email", Header: "Email", Value: func(c contact) string { return c.Email }, Searchable: true},
	}
}

func sampleContacts() []contact {
	return []contact{
		{1, "Ann Lee", "ann@x.io"},
		{2, "Bob Stone", "bob@y.io"},
		{3, "anna smith", "as@x.io"},
	}
}

func newTestModel(t *testing.T, opts ...search.Option) (*Model[contact], *dataview.View[contact]) {
	t.Helper()
	view, err := dataview.New(contactColumns()...)
	require.NoError(t, err)
	ctrl := search.New(view, opts...)
	m := New(view, ctrl, WithTitle("contacts"))
	t.Cleanup(m.shutdown)
	return m, view
}

func typeText(m *Model[contact], text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// drain applies a pending view change the way the program loop would.
func drain(m *Model[contact]) {
	select {
	case <-m.changed:
		m.Update(viewChangedMsg{})
	default:
	}
}

func tableIDs(m *Model[contact]) []string {
	var ids []string
	for _, row := range m.table.Rows() {
		ids = append(ids, row[0])
	}
	return ids
}

func TestModel_LoadingState(t *testing.T) {
	m, _ := newTestModel(t)

	out := m.View()
	assert.Contains(t, out, "contacts")
	assert.Contains(t, out, "loading…")
	assert.Empty(t, m.table.Rows())
}

func TestModel_InitialLoadViaLoader(t *testing.T) {
	view, err := dataview.New(contactColumns()...)
	require.NoError(t, err)
	ctrl := search.New(view)
	m := New(view, ctrl, WithLoader(func() error { return view.Load(sampleContacts()) }))
	defer m.shutdown()

	require.NotNil(t, m.Init())
	assert.Nil(t, m.loadCmd())

	drain(m)
	assert.Equal(t, []string{"1", "2", "3"}, tableIDs(m))
	assert.Contains(t, m.View(), "3/3 rows")
}

func TestModel_LoaderError(t *testing.T) {
	view, err := dataview.New(contactColumns()...)
	require.NoError(t, err)
	m := New(view, search.New(view), WithLoader(func() error { return errors.New("disk on fire") }))
	defer m.shutdown()

	msg := m.loadCmd()
	m.Update(msg)
	assert.Contains(t, m.View(), "disk on fire")
}

func TestModel_EagerTypingFilters(t *testing.T) {
	m, view := newTestModel(t, search.WithMode(search.ModeEager))
	require.NoError(t, view.Load(sampleContacts()))
	drain(m)

	typeText(m, "ann")
	drain(m)

	assert.Equal(t, "ann", view.Query())
	assert.Equal(t, []string{"1", "3"}, tableIDs(m))
	assert.Contains(t, m.View(), `query "ann"`)
}

func TestModel_LazyTypingWaitsForQuietPeriod(t *testing.T) {
	mock := clock.NewMock()
	m, view := newTestModel(t, search.WithClock(mock), search.WithQuietPeriod(300*time.Millisecond))
	require.NoError(t, view.Load(sampleContacts()))
	drain(m)

	typeText(m, "bob")
	assert.Equal(t, "", view.Query())
	assert.Contains(t, m.View(), "typing…")

	mock.Add(300 * time.Millisecond)
	assert.Eventually(t, func() bool { return view.Query() == "bob" }, time.Second, 5*time.Millisecond)

	drain(m)
	assert.Equal(t, []string{"2"}, tableIDs(m))
}

func TestModel_EnterFlushes(t *testing.T) {
	mock := clock.NewMock()
	m, view := newTestModel(t, search.WithClock(mock))
	require.NoError(t, view.Load(sampleContacts()))

	typeText(m, "stone")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "stone", view.Query())
}

func TestModel_EscClearsImmediately(t *testing.T) {
	mock := clock.NewMock()
	m, view := newTestModel(t, search.WithClock(mock))
	require.NoError(t, view.Load(sampleContacts()))

	typeText(m, "ann")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "ann", view.Query())

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, "", view.Query())

	drain(m)
	assert.Len(t, m.table.Rows(), 3)
}

func TestModel_NoMatches(t *testing.T) {
	m, view := newTestModel(t, search.WithMode(search.ModeEager))
	require.NoError(t, view.Load(sampleContacts()))

	typeText(m, "zzz")
	drain(m)

	assert.Empty(t, m.table.Rows())
	assert.Contains(t, m.View(), "no matches")
	assert.Contains(t, m.View(), "0/3 rows")
}

func TestModel_TabAndSortToggle(t *testing.T) {
	m, view := newTestModel(t)
	require.NoError(t, view.Load(sampleContacts()))
	drain(m)

	// name column
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	drain(m)
	assert.Equal(t, []string{"1", "3", "2"}, tableIDs(m))
	assert.Equal(t, "›Name ▲1", m.table.Columns()[1].Title)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	drain(m)
	assert.Equal(t, []string{"2", "3", "1"}, tableIDs(m))
	assert.Equal(t, "›Name ▼1", m.table.Columns()[1].Title)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	drain(m)
	assert.Equal(t, []string{"1", "2", "3"}, tableIDs(m))
	assert.Equal(t, "›Name", m.table.Columns()[1].Title)
}

func TestModel_ShiftTabWrapsAround(t *testing.T) {
	m, view := newTestModel(t)
	require.NoError(t, view.Load(sampleContacts()))

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 2, m.active)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.View(), "Email is not sortable")
	assert.Empty(t, view.Sort())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.active)
	assert.NotContains(t, m.View(), "not sortable")
}

func TestModel_CursorMovesAndClamps(t *testing.T) {
	m, view := newTestModel(t, search.WithMode(search.ModeEager))
	require.NoError(t, view.Load(sampleContacts()))
	drain(m)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.table.Cursor())

	typeText(m, "bob")
	drain(m)
	assert.Equal(t, 0, m.table.Cursor())
}

func TestModel_CtrlCQuits(t *testing.T) {
	m, view := newTestModel(t, search.WithMode(search.ModeEager))
	require.NoError(t, view.Load(sampleContacts()))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", m.View())

	typeText(m, "ann")
	assert.Equal(t, "", view.Query(), "closed controller ignores input")
}

func TestModel_ShutdownReleasesChangeWaiter(t *testing.T) {
	m, view := newTestModel(t)

	got := make(chan tea.Msg, 1)
	go func() { got <- m.waitForChange() }()

	m.shutdown()
	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("waitForChange still blocked after shutdown")
	}

	require.NoError(t, view.Load(sampleContacts()))
	assert.Nil(t, m.waitForChange(), "no signals after shutdown")
}

func TestModel_WaitForChange(t *testing.T) {
	m, view := newTestModel(t)
	require.NoError(t, view.Load(sampleContacts()))
	assert.Equal(t, viewChangedMsg{}, m.waitForChange())
}

func TestModel_WindowResize(t *testing.T) {
	m, view := newTestModel(t)
	require.NoError(t, view.Load(sampleContacts()))

	drain(m)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, m.table.Width())
	assert.Contains(t, m.View(), "Ann Lee")
}

func TestHeaderTitle(t *testing.T) {
	cols := contactColumns()
	spec := dataview.SortSpec{
		{Column: "name", Direction: dataview.Descending},
		{Column: "id", Direction: dataview.Ascending},
	}

	assert.Equal(t, "ID ▲2", headerTitle(&cols[0], spec, false))
	assert.Equal(t, "Name ▼1", headerTitle(&cols[1], spec, false))
	assert.Equal(t, "›Email", headerTitle(&cols[2], spec, true))
}

func TestModel_LongValuesAreCapped(t *testing.T) {
	m, view := newTestModel(t)
	require.NoError(t, view.Load([]contact{{1, strings.Repeat("x", 200), "a@b.io"}}))
	drain(m)

	assert.Equal(t, maxColumnWidth, m.table.Columns()[1].Width)
}
