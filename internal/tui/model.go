package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/satchel-kb/satchel/internal/entry"
	"github.com/satchel-kb/satchel/internal/keybind"
	"github.com/satchel-kb/satchel/internal/list"
	"github.com/satchel-kb/satchel/internal/mutation"
	"github.com/satchel-kb/satchel/internal/notify"
	"github.com/satchel-kb/satchel/internal/persist"
	"github.com/satchel-kb/satchel/internal/prefs"
	"github.com/satchel-kb/satchel/internal/procedure"
	"github.com/satchel-kb/satchel/internal/query"
)

// refreshMsg signals that cache or controller state changed and the
// rendered sequence must be recomputed.
type refreshMsg struct{}

// Options wires the model to the engine.
type Options struct {
	Cache      *query.Cache
	Client     *procedure.Client
	Controller *list.Controller
	Router     *keybind.Router
	Notifier   *notify.Recorder
	Clipboard  keybind.Clipboard

	Workspace string
	LinkBase  string

	WorkspaceState *persist.Store[prefs.Workspace]

	StaleTime time.Duration
	Retries   int
}

// Model is the bubbletea model for the entries list. It implements
// keybind.FocusList so the chord bridge can move focus, and
// keybind.Dialogs so "d" can open the delete confirmation.
type Model struct {
	opts    Options
	updates chan tea.Msg

	sub      *query.Subscription
	rendered []entry.Entry
	window   *Window
	focused  int
	offset   int

	width  int
	height int
	spin   spinner.Model

	confirmDelete bool
	deleteEntries *mutation.Mutation
	quitting      bool
}

// NewModel builds the model, subscribes it to the workspace entries query
// and registers the chord bindings.
func NewModel(opts Options) *Model {
	m := &Model{
		opts:    opts,
		updates: make(chan tea.Msg, 32),
		window:  NewWindow(1),
		focused: -1,
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	m.deleteEntries = mutation.New(procedure.DeleteEntries, opts.Client, opts.Cache, opts.Notifier, mutation.Options{
		Invalidates:    mutation.Keys([]string{procedure.ListWorkspaceEntries, opts.Workspace}),
		SuccessMessage: "Entries deleted",
	})

	bridge := keybind.New(keybind.Options{
		List:       m,
		Controller: opts.Controller,
		Clipboard:  opts.Clipboard,
		Dialogs:    m,
		Notifier:   opts.Notifier,
		LinkBase:   opts.LinkBase,
		Workspace:  opts.Workspace,
		OnFocus:    m.rememberFocus,
	})
	bridge.Register(opts.Router)

	opts.Controller.Subscribe(func() { m.push(refreshMsg{}) })

	m.sub = opts.Cache.Subscribe(context.Background(),
		query.WorkspaceEntriesKey(opts.Workspace),
		m.fetchEntries,
		query.Options{
			StaleTime: opts.StaleTime,
			Retry:     query.RetryPolicy{Count: opts.Retries},
		},
		func(query.Result) { m.push(refreshMsg{}) },
	)

	return m
}

func (m *Model) fetchEntries(ctx context.Context) (any, error) {
	payload := map[string]any{"workspace_slug": m.opts.Workspace}
	page, err := m.opts.Client.ListAllEntries(ctx, procedure.ListWorkspaceEntries, payload)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// push queues a message for the event loop without blocking a cache
// goroutine. refreshMsg is coalescing, so a dropped message is recovered
// by the one already queued.
func (m *Model) push(msg tea.Msg) {
	select {
	case m.updates <- msg:
	default:
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg { return <-m.updates }
}

func (m *Model) Init() tea.Cmd {
	m.opts.Router.Activate(keybind.ScopeEntries)
	m.refresh()
	return tea.Batch(m.spin.Tick, m.listen())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case refreshMsg:
		m.refresh()
		return m, m.listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	if m.confirmDelete {
		switch msg.Type {
		case tea.KeyEnter:
			m.confirmDelete = false
			m.fireDelete()
		case tea.KeyEsc:
			m.confirmDelete = false
		}
		return m, nil
	}

	if msg.String() == "q" {
		return m.quit()
	}
	if c, ok := chordFromKey(msg); ok {
		m.opts.Router.Dispatch(c)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.opts.Router.Deactivate(keybind.ScopeEntries)
	m.sub.Close()
	return m, tea.Quit
}

func (m *Model) fireDelete() {
	ids := m.opts.Controller.SelectedIDs()
	if len(ids) == 0 {
		return
	}
	m.deleteEntries.Fire(context.Background(), map[string]any{"ids": ids})
	m.opts.Controller.ClearSelections()
}

// refresh recomputes the rendered sequence from the cache snapshot and the
// controller's filter+sort pipeline.
func (m *Model) refresh() {
	var all []entry.Entry
	if page, ok := m.sub.Result().Data.(entry.Page); ok {
		all = page.Entries
	}
	m.rendered = m.opts.Controller.Apply(all)
	m.window.SetCount(len(m.rendered))
	if m.focused >= len(m.rendered) {
		m.focused = len(m.rendered) - 1
	}
	m.offset = m.window.ClampOffset(m.offset, m.viewHeight())
}

func (m *Model) rememberFocus(id string) {
	if m.opts.WorkspaceState == nil {
		return
	}
	m.opts.WorkspaceState.Update(func(w *prefs.Workspace) { w.LastFocusedID = id })
}

// viewHeight is the row budget left after the header and status chrome.
func (m *Model) viewHeight() int {
	h := m.height - 4
	if h < 1 {
		h = 10
	}
	return h
}

// MARK: keybind.FocusList

func (m *Model) Focused() (int, bool) {
	if m.focused < 0 || m.focused >= len(m.rendered) {
		return -1, false
	}
	return m.focused, true
}

func (m *Model) FocusIndex(i int) bool {
	if i < 0 || i >= len(m.rendered) {
		return false
	}
	m.focused = i
	m.scrollTo(i)
	return true
}

func (m *Model) Count() int { return len(m.rendered) }

func (m *Model) EntryAt(i int) (entry.Entry, bool) {
	if i < 0 || i >= len(m.rendered) {
		return entry.Entry{}, false
	}
	return m.rendered[i], true
}

func (m *Model) IndexOf(id string) int {
	for i, e := range m.rendered {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) LastFocusedID() string {
	if m.opts.WorkspaceState == nil {
		return ""
	}
	return m.opts.WorkspaceState.Get().LastFocusedID
}

// MARK: keybind.Dialogs

func (m *Model) OpenDeleteEntries() { m.confirmDelete = true }

// scrollTo keeps the row at position i fully inside the viewport.
func (m *Model) scrollTo(i int) {
	start := m.window.Start(i)
	end := start + m.window.RowHeight(i)
	viewport := m.viewHeight()

	if start < m.offset {
		m.offset = start
	}
	if end > m.offset+viewport {
		m.offset = end - viewport
	}
	m.offset = m.window.ClampOffset(m.offset, viewport)
}
