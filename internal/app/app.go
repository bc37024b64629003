// Package app is the Bubble Tea front end: the root model, view
// routing, and the commands that bridge key presses to the store.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mytodo/internal/keys"
	"github.com/nhle/mytodo/internal/model"
	"github.com/nhle/mytodo/internal/notify"
	"github.com/nhle/mytodo/internal/store"
	"github.com/nhle/mytodo/internal/theme"
	"github.com/nhle/mytodo/internal/view"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewTasks ViewState = iota
	ViewTaskForm
	ViewSettings
)

// listsLoadedMsg carries the result of loading all lists.
type listsLoadedMsg struct {
	lists []model.List
	err   error
}

// viewResolvedMsg carries the resolved content of the active view.
type viewResolvedMsg struct {
	result view.Result
	err    error
}

// taskMutatedMsg reports the outcome of a write (create, update,
// toggle, delete) so the view can be reloaded and the status bar set.
type taskMutatedMsg struct {
	status string
	err    error
}

// Model is the root Bubble Tea model.
type Model struct {
	store    store.Store
	resolver *view.Resolver
	cfg      *model.Config
	poller   *notify.Poller
	keys     *keys.KeyMap

	currentView ViewState
	lists       []model.List
	listIdx     int
	tabIdx      int
	result      view.Result
	cursor      int

	search    textinput.Model
	searching bool

	taskForm     *taskForm
	settingsForm *settingsForm

	help   help.Model
	status string
	width  int
	height int
	ready  bool

	restartRequested bool
}

// New creates the root application model. The poller must already be
// constructed; the model only subscribes to its messages.
func New(s store.Store, cfg *model.Config, p *notify.Poller) Model {
	search := textinput.New()
	search.Placeholder = "search title..."
	search.Prompt = "/ "
	search.CharLimit = 64

	return Model{
		store:    s,
		resolver: view.NewResolver(s),
		cfg:      cfg,
		poller:   p,
		keys:     keys.DefaultKeyMap(),
		search:   search,
		help:     help.New(),
	}
}

// RestartRequested reports whether a settings change needs an
// application restart to take effect. Checked by main after Run.
func (m Model) RestartRequested() bool {
	return m.restartRequested
}

// Init loads the lists and subscribes to due-task notifications.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadLists(), m.poller.WaitForDue())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m.updateActiveView(msg)

	case listsLoadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("error: %v", msg.err)
			return m, nil
		}
		m.lists = msg.lists
		if m.listIdx >= len(m.lists) {
			m.listIdx = 0
		}
		return m, m.resolveView()

	case viewResolvedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("error: %v", msg.err)
			return m, nil
		}
		m.result = msg.result
		if m.cursor >= len(m.result.Tasks) {
			m.cursor = max(0, len(m.result.Tasks)-1)
		}
		return m, nil

	case taskMutatedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("error: %v", msg.err)
		} else {
			m.status = msg.status
		}
		return m, m.resolveView()

	case notify.DueTaskMsg:
		m.status = fmt.Sprintf("due now: %s", msg.Task.Title)
		// Keep listening, and refresh in case the poller's store handle
		// saw writes this session has not.
		return m, tea.Batch(m.poller.WaitForDue(), m.resolveView())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey routes a key press. Forms and the search input get first
// claim on keys while focused.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentView == ViewTaskForm || m.currentView == ViewSettings {
		if msg.String() == "esc" {
			m.currentView = ViewTasks
			m.taskForm = nil
			m.settingsForm = nil
			return m, nil
		}
		return m.updateActiveView(msg)
	}

	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Reset()
			m.search.Blur()
			return m, m.resolveView()
		case "enter":
			m.searching = false
			m.search.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, tea.Batch(cmd, m.resolveView())
		}
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		m.poller.Stop()
		return m, tea.Quit

	case key.Matches(msg, k.Back):
		if m.search.Value() != "" {
			m.search.Reset()
			return m, m.resolveView()
		}
		return m, nil

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, k.Down):
		if m.cursor < len(m.result.Tasks)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, k.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, k.NextTab):
		m.tabIdx = (m.tabIdx + 1) % len(view.Tabs)
		m.cursor = 0
		return m, m.resolveView()

	case key.Matches(msg, k.PrevTab):
		m.tabIdx = (m.tabIdx - 1 + len(view.Tabs)) % len(view.Tabs)
		m.cursor = 0
		return m, m.resolveView()

	case key.Matches(msg, k.NextList):
		if len(m.lists) > 0 {
			m.listIdx = (m.listIdx + 1) % len(m.lists)
			m.cursor = 0
		}
		return m, m.resolveView()

	case key.Matches(msg, k.PrevList):
		if len(m.lists) > 0 {
			m.listIdx = (m.listIdx - 1 + len(m.lists)) % len(m.lists)
			m.cursor = 0
		}
		return m, m.resolveView()

	case key.Matches(msg, k.Search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, k.Toggle):
		t, ok := m.selectedRealTask()
		if !ok {
			m.status = "projected occurrences cannot be completed"
			return m, nil
		}
		return m, m.toggleTask(t)

	case key.Matches(msg, k.Delete):
		t, ok := m.selectedRealTask()
		if !ok {
			m.status = "projected occurrences cannot be deleted"
			return m, nil
		}
		return m, m.deleteTask(t)

	case key.Matches(msg, k.New):
		m.taskForm = newTaskForm(m.newTaskDefaults(), "", m.lists)
		m.currentView = ViewTaskForm
		return m, m.taskForm.form.Init()

	case key.Matches(msg, k.Edit):
		t, ok := m.selectedRealTask()
		if !ok {
			m.status = "projected occurrences cannot be edited"
			return m, nil
		}
		m.taskForm = newTaskForm(t, t.ID, m.lists)
		m.currentView = ViewTaskForm
		return m, m.taskForm.form.Init()

	case key.Matches(msg, k.Settings):
		m.settingsForm = newSettingsForm(m.cfg)
		m.currentView = ViewSettings
		return m, m.settingsForm.form.Init()
	}

	return m, nil
}

// updateActiveView dispatches the message to the focused sub-view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewTaskForm:
		if m.taskForm == nil {
			return m, nil
		}
		f, cmd := m.taskForm.form.Update(msg)
		if form, ok := f.(*huh.Form); ok {
			m.taskForm.form = form
		}
		if m.taskForm.form.State == huh.StateCompleted {
			tf := m.taskForm
			m.taskForm = nil
			m.currentView = ViewTasks
			return m, m.submitTask(tf)
		}
		if m.taskForm.form.State == huh.StateAborted {
			m.taskForm = nil
			m.currentView = ViewTasks
			return m, nil
		}
		return m, cmd

	case ViewSettings:
		if m.settingsForm == nil {
			return m, nil
		}
		f, cmd := m.settingsForm.form.Update(msg)
		if form, ok := f.(*huh.Form); ok {
			m.settingsForm.form = form
		}
		if m.settingsForm.form.State == huh.StateCompleted {
			sf := m.settingsForm
			m.settingsForm = nil
			m.currentView = ViewTasks
			return m.applySettings(sf)
		}
		if m.settingsForm.form.State == huh.StateAborted {
			m.settingsForm = nil
			m.currentView = ViewTasks
			return m, nil
		}
		return m, cmd
	}

	return m, nil
}

// applySettings persists the settings form and signals a restart when
// the color theme changed.
func (m Model) applySettings(sf *settingsForm) (tea.Model, tea.Cmd) {
	if sf.apply(m.cfg) {
		m.restartRequested = true
	}
	if err := m.cfg.Save(); err != nil {
		m.status = fmt.Sprintf("error: %v", err)
		return m, nil
	}
	if m.restartRequested {
		m.status = "settings saved; restart to apply the new theme"
	} else {
		m.status = "settings saved"
	}
	return m, nil
}

// newTaskDefaults seeds the create form from the active tab: the Today
// tab pre-fills today's date, Upcoming pre-fills tomorrow.
func (m Model) newTaskDefaults() model.Task {
	t := model.Task{Priority: model.PriorityMedium}
	if l, ok := m.currentList(); ok {
		t.ListID = l.ID
	}

	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch view.Tabs[m.tabIdx] {
	case view.TabToday:
		due := startOfToday.Add(9 * time.Hour)
		t.DueDate = &due
	case view.TabUpcoming:
		due := startOfToday.AddDate(0, 0, 1).Add(9 * time.Hour)
		t.DueDate = &due
	}
	return t
}

// currentList returns the active list.
func (m Model) currentList() (model.List, bool) {
	if len(m.lists) == 0 {
		return model.List{}, false
	}
	return m.lists[m.listIdx], true
}

// selectedRealTask returns the task under the cursor if it is a
// persisted row. Projections have no identity to act on.
func (m Model) selectedRealTask() (model.Task, bool) {
	if m.cursor >= len(m.result.Tasks) {
		return model.Task{}, false
	}
	t, ok := m.result.Tasks[m.cursor].(model.Task)
	return t, ok
}

// loadLists returns a command that fetches all lists.
func (m Model) loadLists() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		lists, err := s.GetLists(context.Background())
		return listsLoadedMsg{lists: lists, err: err}
	}
}

// resolveView returns a command that re-resolves the active view.
func (m Model) resolveView() tea.Cmd {
	l, ok := m.currentList()
	if !ok {
		return nil
	}
	resolver := m.resolver
	tab := view.Tabs[m.tabIdx]
	query := m.search.Value()
	return func() tea.Msg {
		result, err := resolver.Resolve(context.Background(), l.ID, tab, query)
		return viewResolvedMsg{result: result, err: err}
	}
}

// toggleTask flips completion of a task. When a recurring task is
// completed the store materializes its next occurrence in the same
// transaction.
func (m Model) toggleTask(t model.Task) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		res, err := s.ToggleTask(context.Background(), t.ID)
		if err != nil {
			return taskMutatedMsg{err: err}
		}
		status := fmt.Sprintf("reopened: %s", res.Task.Title)
		if res.Task.Status == model.TaskStatusComplete {
			status = fmt.Sprintf("completed: %s", res.Task.Title)
			if res.Created != nil {
				status = fmt.Sprintf("completed: %s (next due %s)",
					res.Task.Title, res.Created.DueDate.Format("Jan 02"))
			}
		}
		return taskMutatedMsg{status: status}
	}
}

// deleteTask removes a task along with its subtasks.
func (m Model) deleteTask(t model.Task) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if err := s.DeleteTask(context.Background(), t.ID); err != nil {
			return taskMutatedMsg{err: err}
		}
		return taskMutatedMsg{status: fmt.Sprintf("deleted: %s", t.Title)}
	}
}

// submitTask persists the task form, creating or updating depending on
// whether an edit target was set.
func (m Model) submitTask(tf *taskForm) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		task, err := tf.task()
		if err != nil {
			return taskMutatedMsg{err: err}
		}

		if tf.editID == "" {
			created, err := s.CreateTask(context.Background(), task)
			if err != nil {
				return taskMutatedMsg{err: err}
			}
			return taskMutatedMsg{status: fmt.Sprintf("created: %s", created.Title)}
		}

		existing, err := s.GetTaskByID(context.Background(), tf.editID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return taskMutatedMsg{err: fmt.Errorf("task no longer exists")}
			}
			return taskMutatedMsg{err: err}
		}

		existing.Title = task.Title
		existing.Description = task.Description
		existing.Priority = task.Priority
		existing.DueDate = task.DueDate
		existing.Recurrence = task.Recurrence
		if existing.ListID != task.ListID {
			if err := s.MoveTask(context.Background(), existing.ID, task.ListID); err != nil {
				return taskMutatedMsg{err: err}
			}
			existing.ListID = task.ListID
		}
		if err := s.UpdateTask(context.Background(), *existing); err != nil {
			return taskMutatedMsg{err: err}
		}
		return taskMutatedMsg{status: fmt.Sprintf("updated: %s", existing.Title)}
	}
}

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.currentView {
	case ViewTaskForm:
		if m.taskForm != nil {
			return m.taskForm.form.View()
		}
	case ViewSettings:
		if m.settingsForm != nil {
			return m.settingsForm.form.View()
		}
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderTasks())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderHeader draws the active list name and the tab bar.
func (m Model) renderHeader() string {
	name := "(no list)"
	if l, ok := m.currentList(); ok {
		name = l.Name
	}

	tabs := make([]string, 0, len(view.Tabs))
	for i, tab := range view.Tabs {
		style := theme.TabStyle
		if i == m.tabIdx {
			style = theme.ActiveTabStyle
		}
		tabs = append(tabs, style.Render(string(tab)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		theme.HeaderStyle.Render(name),
		" ",
		lipgloss.JoinHorizontal(lipgloss.Center, tabs...),
	)
}

// renderTasks draws the resolved view: sectioned for the grouped
// Upcoming tab, flat otherwise.
func (m Model) renderTasks() string {
	if m.result.Empty() {
		if m.result.Query != "" {
			return theme.HelpStyle.Render(fmt.Sprintf("  no results for %q", m.result.Query))
		}
		return theme.HelpStyle.Render("  no tasks here")
	}

	var b strings.Builder
	if len(m.result.Sections) > 0 {
		idx := 0
		for _, section := range m.result.Sections {
			b.WriteString(theme.SectionHeaderStyle.Render(section.Header))
			b.WriteString("\n")
			for _, t := range section.Tasks {
				b.WriteString(m.renderTask(t, idx == m.cursor))
				b.WriteString("\n")
				idx++
			}
		}
		return b.String()
	}

	for i, t := range m.result.Tasks {
		b.WriteString(m.renderTask(t, i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

// renderTask draws one row: checkbox, priority marker, title, due date
// and subtask progress.
func (m Model) renderTask(t model.DisplayTask, selected bool) string {
	checkbox := "[ ]"
	if t.IsCompleted() {
		checkbox = "[x]"
	}
	if t.IsProjection() {
		checkbox = "[~]"
	}

	title := t.GetTitle()
	line := fmt.Sprintf("%s %s %s",
		checkbox,
		theme.PriorityStyle(t.GetPriority()).Render("!"),
		title,
	)

	if due := t.GetDueDate(); due != nil {
		ds := due.Format("Jan 02 15:04")
		if task, ok := t.(model.Task); ok && task.IsOverdue(time.Now()) {
			ds = theme.OverdueStyle.Render(ds)
		}
		line += "  " + theme.HelpStyle.Render(ds)
	}
	if t.GetRecurrence() != model.RecurrenceNone {
		line += " " + theme.HelpStyle.Render("⟳")
	}
	if done, total := t.SubtaskProgress(); total > 0 {
		line += " " + theme.HelpStyle.Render(fmt.Sprintf("(%d/%d)", done, total))
	}

	switch {
	case selected:
		return theme.SelectedItemStyle.Render(line)
	case t.IsProjection():
		return theme.ListItemStyle.Render(theme.ProjectionStyle.Render(line))
	case t.IsCompleted():
		return theme.ListItemStyle.Render(theme.DoneStyle.Render(line))
	default:
		return theme.ListItemStyle.Render(line)
	}
}

// renderStatusBar draws the transient status message and key hints.
func (m Model) renderStatusBar() string {
	var b strings.Builder
	if m.status != "" {
		b.WriteString(theme.StatusBarStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
