package trigger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/trybotster/rulebot/internal/agent"
	"github.com/trybotster/rulebot/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetTriggersReplacesTriggersAndRestartsPeriodicTasks(t *testing.T) {
	pool, err := agent.NewPool(agent.PoolConfig{Size: 1, Cols: 80, Rows: 24, ShellCommand: "/bin/sh"}, testLogger())
	if err != nil {
		t.Fatalf("agent.NewPool() error: %v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScheduler([]config.Trigger{{Name: "a", Kind: config.Periodic, Interval: time.Hour}}, pool, testLogger())
	s.StartPeriodic(ctx)

	s.mu.Lock()
	firstCancelCount := len(s.periodicCancel)
	s.mu.Unlock()
	if firstCancelCount != 1 {
		t.Fatalf("periodicCancel count after StartPeriodic = %d, want 1", firstCancelCount)
	}

	newTriggers := []config.Trigger{
		{Name: "b", Kind: config.Periodic, Interval: time.Hour},
		{Name: "c", Kind: config.Periodic, Interval: time.Hour},
	}
	s.SetTriggers(ctx, newTriggers)

	s.mu.Lock()
	gotTriggers := s.triggers
	gotCancelCount := len(s.periodicCancel)
	s.mu.Unlock()

	if len(gotTriggers) != 2 {
		t.Fatalf("triggers after SetTriggers = %v, want 2 entries", gotTriggers)
	}
	if gotCancelCount != 2 {
		t.Fatalf("periodicCancel count after SetTriggers = %d, want 2 (old task stopped, two new ones started)", gotCancelCount)
	}
}

func TestRunShellCommandSuccess(t *testing.T) {
	result, err := runShellCommand(context.Background(), "printf 'a\\nb\\n'")
	if err != nil {
		t.Fatalf("runShellCommand() error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Stdout != "a\nb\n" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "a\nb\n")
	}
}

func TestRunShellCommandFailure(t *testing.T) {
	result, err := runShellCommand(context.Background(), "exit 1")
	if err != nil {
		t.Fatalf("runShellCommand() returned a Go error for a plain non-zero exit: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
}

func TestRunShellCommandStderr(t *testing.T) {
	result, _ := runShellCommand(context.Background(), "echo oops 1>&2")
	if result.Stderr != "oops\n" {
		t.Errorf("Stderr = %q, want %q", result.Stderr, "oops\n")
	}
}

func TestSourceLabel(t *testing.T) {
	got := sourceLabel("printf 'a\\nb\\n'")
	if got != "printf" {
		t.Errorf("sourceLabel() = %q, want %q", got, "printf")
	}
}
