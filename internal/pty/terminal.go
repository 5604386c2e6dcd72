// Package pty implements the PTY Terminal (C1): it spawns a shell behind a
// pseudo-terminal, pumps bytes in both directions, feeds a Screen Model,
// and fans raw bytes and decoded text out to any number of subscribers.
package pty

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/creack/pty"

	"github.com/trybotster/rulebot/internal/broadcast"
	"github.com/trybotster/rulebot/internal/chanutil"
	"github.com/trybotster/rulebot/internal/screen"
)

// readChunkSize keeps the screen model and subscribers current without a
// syscall per byte.
const readChunkSize = 4096

// accumulatedHighWater / accumulatedLowWater are the operational
// watermarks from §4.1: once accumulated output exceeds the high-water
// mark it is trimmed from the head down to the low-water mark. These are
// chosen operational values, not load-bearing constants (§9 bullet 4).
const (
	accumulatedHighWater = 100 * 1024
	accumulatedLowWater  = 80 * 1024
)

// Config describes how to spawn the shell behind the PTY.
type Config struct {
	ShellCommand string
	Cols         uint16
	Rows         uint16
	Dir          string
}

// Terminal owns one PTY pair and its child shell. Every byte read from
// the PTY is, in order: fed to the Screen Model, appended to the
// accumulated-output buffer, broadcast on the byte channel, and
// broadcast (lossily decoded) on the text channel — matching §3's
// ordering invariant.
type Terminal struct {
	master *os.File
	cmd    *exec.Cmd
	screen *screen.Model
	log    *slog.Logger

	bytesHub *broadcast.Hub[[]byte]
	textHub  *broadcast.Hub[string]

	inputMu     sync.Mutex
	inputIn     chan<- []byte
	inputClosed bool

	mu        sync.Mutex
	cols      uint16
	rows      uint16
	accOutput []byte
	pending   []byte // incomplete trailing UTF-8 sequence from the last chunk

	done     chan struct{}
	closeOne sync.Once
	readWg   sync.WaitGroup
}

// Spawn opens a PTY pair, starts the shell, and begins the read and
// write loops. A brief settle delay lets the shell finish its own
// startup (reading rc files, drawing a prompt) before the caller starts
// writing to it.
func Spawn(cfg Config, log *slog.Logger) (*Terminal, error) {
	shell := cfg.ShellCommand
	if shell == "" {
		shell = DefaultShell()
	}

	cmd := exec.Command(shell)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cfg.Cols, Rows: cfg.Rows})
	if err != nil {
		return nil, fmt.Errorf("spawning shell %q: %w", shell, err)
	}

	t := &Terminal{
		master:   master,
		cmd:      cmd,
		screen:   screen.New(int(cfg.Cols), int(cfg.Rows)),
		log:      log,
		bytesHub: broadcast.New[[]byte](broadcast.DefaultCapacity),
		textHub:  broadcast.New[string](broadcast.DefaultCapacity),
		cols:     cfg.Cols,
		rows:     cfg.Rows,
		done:     make(chan struct{}),
	}

	// At least one internal subscriber must exist for the lifetime of the
	// Terminal (§4.1) so that fan-out semantics never depend on whether an
	// external subscriber happens to be connected.
	t.startKeepalive()

	in, out := chanutil.Unbounded[[]byte]()
	t.inputIn = in

	t.readWg.Add(2)
	go t.readLoop()
	go t.writeLoop(out)

	time.Sleep(100 * time.Millisecond)
	return t, nil
}

func (t *Terminal) startKeepalive() {
	_, byteCh := t.bytesHub.Subscribe()
	_, textCh := t.textHub.Subscribe()
	go func() {
		for range byteCh {
		}
	}()
	go func() {
		for range textCh {
		}
	}()
}

func (t *Terminal) readLoop() {
	defer t.readWg.Done()
	buf := make([]byte, readChunkSize)
	for {
		n, err := t.master.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.handleChunk(chunk)
		}
		if err != nil {
			if err != io.EOF {
				t.log.Warn("pty read error, terminating read loop", "error", err)
			}
			return
		}
	}
}

func (t *Terminal) handleChunk(chunk []byte) {
	t.screen.Process(chunk)

	t.mu.Lock()
	t.accOutput = append(t.accOutput, chunk...)
	if len(t.accOutput) > accumulatedHighWater {
		drop := len(t.accOutput) - accumulatedLowWater
		t.accOutput = append([]byte(nil), t.accOutput[drop:]...)
	}
	text, pending := decodeLossy(append(t.pending, chunk...))
	t.pending = pending
	t.mu.Unlock()

	t.bytesHub.Publish(chunk)
	if text != "" {
		t.textHub.Publish(text)
	}
}

// decodeLossy decodes as much of data as forms complete UTF-8 runes,
// returning the decoded text and any trailing incomplete byte sequence
// to prepend to the next chunk. This is the fix for §9 bullet 2: a
// naive per-chunk lossy decode can split a multi-byte rune across two
// broadcasts.
func decodeLossy(data []byte) (text string, pending []byte) {
	n := len(data)
	if n == 0 {
		return "", nil
	}

	cut := n
	for back := 1; back <= utf8.UTFMax-1 && back <= n; back++ {
		b := data[n-back]
		if utf8.RuneStart(b) {
			if !utf8.FullRune(data[n-back:]) {
				cut = n - back
			}
			break
		}
	}

	return strings.ToValidUTF8(string(data[:cut]), string(utf8.RuneError)), append([]byte(nil), data[cut:]...)
}

func (t *Terminal) writeLoop(out <-chan []byte) {
	defer t.readWg.Done()
	for chunk := range out {
		if _, err := t.master.Write(chunk); err != nil {
			t.log.Warn("pty write error, terminating write loop", "error", err)
			return
		}
	}
}

// WriteInput queues data for the write loop. Never blocks. A no-op once
// the Terminal has started closing.
func (t *Terminal) WriteInput(data []byte) {
	t.inputMu.Lock()
	defer t.inputMu.Unlock()
	if t.inputClosed {
		return
	}
	t.inputIn <- data
}

// Resize applies the new size to the OS PTY first, then to the screen
// model, never one without the other (§4.1, §8 property 8).
func (t *Terminal) Resize(cols, rows uint16) error {
	if err := pty.Setsize(t.master, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		return fmt.Errorf("resizing pty: %w", err)
	}
	t.screen.Resize(int(cols), int(rows))
	t.mu.Lock()
	t.cols, t.rows = cols, rows
	t.mu.Unlock()
	return nil
}

// Size reports the current dimensions.
func (t *Terminal) Size() (cols, rows uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

// SubscribeBytes registers a new raw-byte subscriber.
func (t *Terminal) SubscribeBytes() (int, <-chan []byte) {
	return t.bytesHub.Subscribe()
}

// UnsubscribeBytes removes a raw-byte subscriber.
func (t *Terminal) UnsubscribeBytes(id int) {
	t.bytesHub.Unsubscribe(id)
}

// SubscribeText registers a new decoded-text subscriber.
func (t *Terminal) SubscribeText() (int, <-chan string) {
	return t.textHub.Subscribe()
}

// UnsubscribeText removes a decoded-text subscriber.
func (t *Terminal) UnsubscribeText(id int) {
	t.textHub.Unsubscribe(id)
}

// ScreenContents returns the screen model's current rendered contents.
func (t *Terminal) ScreenContents() string {
	return t.screen.Contents()
}

// AccumulatedOutput returns a copy of the capped accumulated-output
// buffer.
func (t *Terminal) AccumulatedOutput() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.accOutput...)
}

// ShellPID returns the shell process's PID once the shell has been
// started. It does not check whether that process is still running.
func (t *Terminal) ShellPID() (int, bool) {
	if t.cmd.Process == nil {
		return 0, false
	}
	return t.cmd.Process.Pid, true
}

// Close kills and reaps the child, then aborts the read and write
// loops, in that order (§4.1 Lifecycle/failure invariant). Closing the
// write loop's input is what lets it return when no keystroke was ever
// queued: writeLoop only exits when its channel closes, and that
// channel only closes once inputIn does.
func (t *Terminal) Close() error {
	var closeErr error
	t.closeOne.Do(func() {
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
			_, _ = t.cmd.Process.Wait()
		}
		close(t.done)
		closeErr = t.master.Close()

		t.inputMu.Lock()
		t.inputClosed = true
		close(t.inputIn)
		t.inputMu.Unlock()

		t.readWg.Wait()
		t.bytesHub.Close()
		t.textHub.Close()
	})
	return closeErr
}

// DefaultShell resolves the shell to spawn when no explicit command is
// configured: $SHELL, falling back to /bin/zsh then /bin/bash on Unix,
// or cmd on Windows (§6).
func DefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	if _, err := os.Stat("/bin/zsh"); err == nil {
		return "/bin/zsh"
	}
	return "/bin/bash"
}
