// Package notify runs the background due-task check.
package notify

import (
	"context"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mytodo/internal/model"
)

// DueSource is the subset of the store the poller reads. The poller is
// handed its own store handle so its ticks never share interactive
// session state.
type DueSource interface {
	GetDueTasks(ctx context.Context, from, before time.Time) ([]model.Task, error)
}

// DueTaskMsg is a tea.Msg sent to the interactive layer when a task
// comes due.
type DueTaskMsg struct {
	Task model.Task
}

// DefaultInterval matches the one-minute due window: with both at one
// minute, a task triggers at most once under normal clock behavior.
// Missed ticks (system sleep, skew) are not compensated.
const DefaultInterval = 60 * time.Second

// tickTimeout bounds a single poll of the store.
const tickTimeout = 10 * time.Second

// Poller periodically finds open tasks due within the current minute
// window and hands each one to the delivery hook. Delivery is best
// effort: a failed hook or a failed query is logged and the poller keeps
// running; a single failed tick is never fatal.
type Poller struct {
	source   DueSource
	enabled  func() bool
	onDue    func(model.Task) error
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger

	resultCh chan DueTaskMsg
	stopCh   chan struct{}

	mu      gosync.Mutex
	running bool
}

// New creates a poller over the given source. The enabled hook is
// consulted at the top of every tick; when it reports false the tick is
// a no-op that performs no query. onDue delivers one notification per
// due task and may be nil.
func New(source DueSource, enabled func() bool, onDue func(model.Task) error) *Poller {
	return &Poller{
		source:   source,
		enabled:  enabled,
		onDue:    onDue,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   log.Default(),
		resultCh: make(chan DueTaskMsg, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the polling goroutine. Starting a running poller is a
// no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	go p.run()
}

// Stop halts the polling goroutine so no further tick fires. Call it
// before closing the poller's store handle.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// run is the ticker loop. A tick either completes or is superseded by
// the next one; there is nothing long-running to cancel.
func (p *Poller) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.checkDueTasks()
		}
	}
}

// checkDueTasks runs a single tick: compute the current minute window
// [floor(now, minute), +1min), query open tasks due in it, and deliver
// one notification per task.
func (p *Poller) checkDueTasks() {
	if p.enabled != nil && !p.enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	windowStart := p.now().Truncate(time.Minute)
	tasks, err := p.source.GetDueTasks(ctx, windowStart, windowStart.Add(time.Minute))
	if err != nil {
		// Treat a failed query as an empty tick; the next interval
		// retries from scratch.
		p.logger.Printf("notify: due-task query failed: %v", err)
		return
	}

	for _, t := range tasks {
		p.deliver(t)
	}
}

// deliver fires the hook for one task and mirrors the event on the
// result channel for the interactive layer. A hook failure affects only
// this task; the remaining tasks in the tick still get their attempt.
func (p *Poller) deliver(t model.Task) {
	if p.onDue != nil {
		if err := p.onDue(t); err != nil {
			p.logger.Printf("notify: delivery failed for %q: %v", t.Title, err)
		}
	}

	select {
	case p.resultCh <- DueTaskMsg{Task: t}:
	default:
		// Drop if the channel is full to avoid blocking the poller.
	}
}

// WaitForDue returns a tea.Cmd that yields the next DueTaskMsg. The
// interactive layer re-issues it after handling each message to keep
// listening.
func (p *Poller) WaitForDue() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}
