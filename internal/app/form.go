package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/nhle/mytodo/internal/model"
)

// dueDateLayouts are the formats accepted by the due date field.
var dueDateLayouts = []string{"2006-01-02 15:04", "2006-01-02"}

// taskBindings holds task form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type taskBindings struct {
	title       string
	description string
	priority    string
	due         string
	recurrence  string
	listID      string
}

// taskForm wraps a huh form for creating or editing a task.
type taskForm struct {
	form   *huh.Form
	fb     *taskBindings
	editID string
}

// newTaskForm builds the create/edit form. For creation, task carries
// the tab-dependent defaults (list, pre-filled due date); for editing it
// is the task being changed and editID is set.
func newTaskForm(task model.Task, editID string, lists []model.List) *taskForm {
	fb := &taskBindings{
		title:       task.Title,
		description: task.Description,
		priority:    task.Priority,
		recurrence:  string(task.Recurrence),
		listID:      task.ListID,
	}
	if fb.priority == "" {
		fb.priority = model.PriorityMedium
	}
	if task.DueDate != nil {
		fb.due = task.DueDate.Format(dueDateLayouts[0])
	}

	listOpts := make([]huh.Option[string], 0, len(lists))
	for _, l := range lists {
		listOpts = append(listOpts, huh.NewOption(l.Name, l.ID))
	}

	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title must not be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Lines(3).
				Value(&fb.description),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("Low", model.PriorityLow),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("High", model.PriorityHigh),
				).
				Value(&fb.priority),
			huh.NewInput().
				Title("Due date").
				Description("YYYY-MM-DD [HH:MM], empty for none").
				Value(&fb.due).
				Validate(func(s string) error {
					_, err := parseDue(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Repeat").
				Options(
					huh.NewOption("Never", string(model.RecurrenceNone)),
					huh.NewOption("Daily", string(model.RecurrenceDaily)),
					huh.NewOption("Weekly", string(model.RecurrenceWeekly)),
					huh.NewOption("Monthly", string(model.RecurrenceMonthly)),
				).
				Value(&fb.recurrence),
			huh.NewSelect[string]().
				Title("List").
				Options(listOpts...).
				Value(&fb.listID),
		),
	)

	return &taskForm{form: f, fb: fb, editID: editID}
}

// task materializes the form fields into a task record.
func (tf *taskForm) task() (model.Task, error) {
	due, err := parseDue(tf.fb.due)
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{
		ID:          tf.editID,
		ListID:      tf.fb.listID,
		Title:       strings.TrimSpace(tf.fb.title),
		Description: strings.TrimSpace(tf.fb.description),
		Priority:    tf.fb.priority,
		DueDate:     due,
		Recurrence:  model.Recurrence(tf.fb.recurrence),
	}, nil
}

// parseDue parses the due date field; empty means no due date.
func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

// settingsBindings holds settings form values on the heap.
type settingsBindings struct {
	appearance    string
	colorTheme    string
	notifications bool
}

// settingsForm wraps the huh form for application settings.
type settingsForm struct {
	form *huh.Form
	sb   *settingsBindings
}

// newSettingsForm builds the settings form pre-filled from cfg.
func newSettingsForm(cfg *model.Config) *settingsForm {
	sb := &settingsBindings{
		appearance:    cfg.AppearanceMode,
		colorTheme:    cfg.ColorTheme,
		notifications: cfg.NotificationsEnabled,
	}

	f := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Appearance mode").
				Options(
					huh.NewOption("System", model.AppearanceSystem),
					huh.NewOption("Light", model.AppearanceLight),
					huh.NewOption("Dark", model.AppearanceDark),
				).
				Value(&sb.appearance),
			huh.NewInput().
				Title("Color theme").
				Description("Name of a built-in theme or a path to a theme file. Takes effect after restart.").
				Value(&sb.colorTheme),
			huh.NewConfirm().
				Title("Desktop notifications").
				Value(&sb.notifications),
		),
	)

	return &settingsForm{form: f, sb: sb}
}

// apply writes the form values into cfg and reports whether a restart is
// required for the change to take effect.
func (sf *settingsForm) apply(cfg *model.Config) (restartRequired bool) {
	cfg.AppearanceMode = sf.sb.appearance
	cfg.NotificationsEnabled = sf.sb.notifications
	return cfg.SetColorTheme(strings.TrimSpace(sf.sb.colorTheme))
}
