package connection

import (
	"context"
	"sync"
)

// TaskFunc is a named background task. It runs until ctx is cancelled
// or it returns on its own. A task that returns on its own (rather
// than being cancelled) is treated as finished.
type TaskFunc func(ctx context.Context)

// TaskOptions configures a registered task.
type TaskOptions struct {
	// RestartAfterReconnect cancels the task when the connection drops
	// and starts a fresh instance once it reaches Connected again. Used
	// for tasks whose work only makes sense on a live connection (the
	// state updater's read loop, a heartbeat-dependent poller).
	RestartAfterReconnect bool

	// Background marks a task that self-deregisters from the registry
	// once its function returns on its own (not via cancellation) —
	// fire-and-forget work like a one-shot startup read.
	Background bool
}

type task struct {
	name    string
	opts    TaskOptions
	fn      TaskFunc
	cancel  context.CancelFunc
	running bool
}

// Manager tracks the connection state and a registry of named
// background tasks, restarting RestartAfterReconnect tasks whenever
// the state transitions to Connected and cancelling them whenever it
// leaves Connected.
type Manager struct {
	mu    sync.Mutex
	state State
	tasks map[string]*task

	listeners []func(State)

	parentCtx context.Context
	wg        sync.WaitGroup
}

// New constructs a Manager. parentCtx bounds the lifetime of every
// task the registry starts; cancelling it stops everything.
func New(parentCtx context.Context) *Manager {
	return &Manager{
		state:     Disconnected,
		tasks:     make(map[string]*task),
		parentCtx: parentCtx,
	}
}

// OnStateChange registers a listener invoked on every state
// transition (not on a re-assertion of the current state).
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetState transitions the connection state. Re-asserting the current
// state is a no-op: no listener is invoked and no task is
// restarted/cancelled. Leaving Connected cancels every
// RestartAfterReconnect task; arriving at Connected (re)starts them.
func (m *Manager) SetState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = s
	listeners := append([]func(State){}, m.listeners...)

	switch {
	case prev == Connected && s != Connected:
		m.cancelRestartableLocked()
	case s == Connected:
		m.startRestartableLocked()
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(s)
	}
}

// Register adds a named task to the registry. If the task is
// RestartAfterReconnect, it is only started once the manager is
// already Connected (or the next time it becomes Connected);
// otherwise it starts immediately.
func (m *Manager) Register(name string, fn TaskFunc, opts TaskOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &task{name: name, opts: opts, fn: fn}
	m.tasks[name] = t

	if !opts.RestartAfterReconnect || m.state == Connected {
		m.startTaskLocked(t)
	}
}

// Deregister cancels and removes a named task.
func (m *Manager) Deregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[name]; ok {
		if t.cancel != nil {
			t.cancel()
			t.running = false
		}
		delete(m.tasks, name)
	}
}

func (m *Manager) startTaskLocked(t *task) {
	if t.running {
		return
	}
	ctx, cancel := context.WithCancel(m.parentCtx)
	t.cancel = cancel
	t.running = true

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		t.fn(ctx)

		m.mu.Lock()
		// t.running may already have been cleared by an explicit
		// cancel (cancelRestartableLocked/Deregister), which frees the
		// task up for an immediate restart rather than waiting for
		// this goroutine to actually unwind.
		t.running = false
		if t.opts.Background {
			delete(m.tasks, t.name)
		}
		m.mu.Unlock()
	}()
}

func (m *Manager) cancelRestartableLocked() {
	for _, t := range m.tasks {
		if t.opts.RestartAfterReconnect && t.cancel != nil {
			t.cancel()
			t.running = false
		}
	}
}

func (m *Manager) startRestartableLocked() {
	for _, t := range m.tasks {
		if t.opts.RestartAfterReconnect {
			m.startTaskLocked(t)
		}
	}
}

// Wait blocks until every task goroutine started by the registry has
// returned. Intended for use after parentCtx has been cancelled.
func (m *Manager) Wait() {
	m.wg.Wait()
}
