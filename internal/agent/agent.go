// Package agent implements the Agent (C3), Agent Pool (C4), and
// Child-Process Watcher (C10). An Agent wraps one PTY Terminal, tracks
// Idle/Active status, and owns a stable identity.
package agent

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/trybotster/rulebot/internal/action"
	"github.com/trybotster/rulebot/internal/pty"
)

// Status is the Agent lifecycle state from §3/§4.2. It is mutated only
// by the Child-Process Watcher.
type Status int

const (
	Idle Status = iota
	Active
)

func (s Status) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Agent is one logical worker: a stable ID, fixed dimensions, one owned
// PTY Terminal, and a status mutated solely by its Child-Process
// Watcher.
type Agent struct {
	id   string
	term *pty.Terminal
	log  *slog.Logger

	statusMu sync.RWMutex
	status   Status
}

// New spawns a shell behind a PTY and wraps it as an Agent. If id is
// empty, a UUID is generated — config files are expected to name agents
// implicitly by pool position, so this is a fallback, not the primary
// identity source.
func New(id string, cols, rows uint16, shellCommand, dir string, log *slog.Logger) (*Agent, error) {
	if id == "" {
		id = uuid.NewString()
	}
	term, err := pty.Spawn(pty.Config{
		ShellCommand: shellCommand,
		Cols:         cols,
		Rows:         rows,
		Dir:          dir,
	}, log)
	if err != nil {
		return nil, err
	}
	return &Agent{id: id, term: term, log: log, status: Idle}, nil
}

// ID returns the Agent's stable identity.
func (a *Agent) ID() string { return a.id }

// Status returns the current Idle/Active state.
func (a *Agent) Status() Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

// SetStatus is called exclusively by the Child-Process Watcher.
func (a *Agent) SetStatus(s Status) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	a.status = s
}

// SendKeys parses one key token (§6) and writes its bytes to the PTY.
func (a *Agent) SendKeys(token string) error {
	a.term.WriteInput(action.ParseKeyToken(token))
	return nil
}

// SubscribeText registers a new decoded-text subscriber on the
// underlying Terminal.
func (a *Agent) SubscribeText() (int, <-chan string) { return a.term.SubscribeText() }

// UnsubscribeText removes a decoded-text subscriber.
func (a *Agent) UnsubscribeText(id int) { a.term.UnsubscribeText(id) }

// SubscribeBytes registers a new raw-byte subscriber, used by the web
// collaborator (§6) to stream live output.
func (a *Agent) SubscribeBytes() (int, <-chan []byte) { return a.term.SubscribeBytes() }

// UnsubscribeBytes removes a raw-byte subscriber.
func (a *Agent) UnsubscribeBytes(id int) { a.term.UnsubscribeBytes(id) }

// ScreenContents returns the current rendered screen.
func (a *Agent) ScreenContents() string { return a.term.ScreenContents() }

// Dimensions returns the Agent's terminal size.
func (a *Agent) Dimensions() (cols, rows uint16) { return a.term.Size() }

// Resize resizes the underlying PTY and screen model together.
func (a *Agent) Resize(cols, rows uint16) error { return a.term.Resize(cols, rows) }

// ShellPID returns the shell process's PID, used by the Child-Process
// Watcher to enumerate its children.
func (a *Agent) ShellPID() (int, bool) { return a.term.ShellPID() }

// Close tears down the underlying Terminal.
func (a *Agent) Close() error { return a.term.Close() }
