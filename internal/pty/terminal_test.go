package pty

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestDecodeLossyCompleteASCII(t *testing.T) {
	text, pending := decodeLossy([]byte("hello"))
	if text != "hello" || len(pending) != 0 {
		t.Errorf("decodeLossy(ascii) = (%q, %v), want (%q, [])", text, pending, "hello")
	}
}

func TestDecodeLossySplitMultiByteRune(t *testing.T) {
	// "é" is 0xC3 0xA9 in UTF-8; split the chunk right after the lead byte.
	full := []byte("caf\xc3\xa9")
	first := full[:len(full)-1] // ends mid-rune
	second := full[len(full)-1:]

	text1, pending := decodeLossy(first)
	if text1 != "caf" {
		t.Errorf("first chunk decoded = %q, want %q", text1, "caf")
	}
	if len(pending) != 1 || pending[0] != 0xc3 {
		t.Errorf("pending = %v, want the lead byte of the split rune", pending)
	}

	text2, pending2 := decodeLossy(append(pending, second...))
	if text2 != "é" {
		t.Errorf("second chunk decoded = %q, want %q", text2, "é")
	}
	if len(pending2) != 0 {
		t.Errorf("pending2 = %v, want none", pending2)
	}
}

// TestCloseReturnsWithoutAnyQueuedInput guards against a deadlock where
// writeLoop only exits by draining a closed channel: if nothing was ever
// written to the Terminal, Close must still close the write loop's input
// so readWg.Wait() returns.
func TestCloseReturnsWithoutAnyQueuedInput(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	term, err := Spawn(Config{ShellCommand: "/bin/sh", Cols: 80, Rows: 24}, log)
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- term.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close() deadlocked with no keystrokes ever queued")
	}
}

func TestWriteInputAfterCloseDoesNotPanic(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	term, err := Spawn(Config{ShellCommand: "/bin/sh", Cols: 80, Rows: 24}, log)
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	if err := term.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	term.WriteInput([]byte("echo hi\n"))
}

func TestDefaultShellRespectsEnv(t *testing.T) {
	old, had := os.LookupEnv("SHELL")
	defer func() {
		if had {
			os.Setenv("SHELL", old)
		} else {
			os.Unsetenv("SHELL")
		}
	}()

	os.Setenv("SHELL", "/usr/local/bin/fish")
	if got := DefaultShell(); got != "/usr/local/bin/fish" {
		t.Errorf("DefaultShell() = %q, want %q", got, "/usr/local/bin/fish")
	}
}
