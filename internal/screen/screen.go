// Package screen implements the VT-compatible Screen Model (C2): a fixed
// cols×rows grid, fed raw PTY bytes, that answers "what does the screen
// look like right now".
package screen

import (
	"strings"
	"sync"

	"github.com/charmbracelet/x/vt"
)

// Model is a VT-compatible terminal grid. All methods are safe for
// concurrent use: one PTY read loop writes to it while any number of
// readers (Agent.ScreenContents callers such as a web collaborator) pull
// rendered contents.
type Model struct {
	mu   sync.Mutex
	term *vt.Terminal
	cols int
	rows int
}

// New creates a Model sized to cols×rows.
func New(cols, rows int) *Model {
	return &Model{
		term: vt.NewSafeEmulator(cols, rows),
		cols: cols,
		rows: rows,
	}
}

// Process feeds raw PTY bytes into the VT state machine. Must be called
// in PTY read order; out-of-order or concatenated-then-reordered calls
// would violate the monotonic-screen-feed invariant.
func (m *Model) Process(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.term.Write(data)
}

// Resize changes the grid dimensions. Callers MUST also resize the
// owning PTY Terminal and MUST do so atomically with respect to any
// reader of Size/Contents (§8 property 8); Model itself only guarantees
// its own internal consistency.
func (m *Model) Resize(cols, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.term.Resize(cols, rows)
	m.cols = cols
	m.rows = rows
}

// Size reports the current grid dimensions.
func (m *Model) Size() (cols, rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cols, m.rows
}

// Contents renders the current screen as UTF-8 text with one line per
// grid row, trailing blank cells on each row trimmed.
func (m *Model) Contents() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]string, m.rows)
	for y := 0; y < m.rows; y++ {
		var b strings.Builder
		for x := 0; x < m.cols; x++ {
			cell := m.term.CellAt(x, y)
			if cell == nil || cell.Content == "" {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(cell.Content)
		}
		lines[y] = strings.TrimRight(b.String(), " ")
	}
	return strings.Join(lines, "\n")
}

// ANSI renders the current screen as an ANSI byte stream suitable for
// resynchronizing a fresh subscriber (e.g. a web collaborator joining
// mid-session).
func (m *Model) ANSI() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.term.Render()
}
