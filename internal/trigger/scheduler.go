// Package trigger implements the Trigger Scheduler (C9): startup
// triggers run once, periodic triggers run on interval, and any
// trigger's execution may expand through a source command (§4.7).
package trigger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/shlex"

	"github.com/trybotster/rulebot/internal/action"
	"github.com/trybotster/rulebot/internal/agent"
	"github.com/trybotster/rulebot/internal/config"
)

// interLinePacing is the mandatory delay between source-expansion lines
// (§4.7 step 5).
const interLinePacing = 100 * time.Millisecond

// Scheduler runs the configured triggers against a Pool.
type Scheduler struct {
	mu       sync.Mutex
	triggers []config.Trigger
	pool     *agent.Pool
	log      *slog.Logger

	periodicCancel []context.CancelFunc
}

// NewScheduler builds a Scheduler over triggers, distributing work
// across pool via round-robin.
func NewScheduler(triggers []config.Trigger, pool *agent.Pool, log *slog.Logger) *Scheduler {
	return &Scheduler{triggers: triggers, pool: pool, log: log}
}

// RunStartup executes every OnStart trigger once, sequentially, against
// a round-robin agent (§4.6 Startup phase). Only ever called once, at
// process startup — a rule-file reload never re-fires startup triggers.
func (s *Scheduler) RunStartup(ctx context.Context) {
	s.mu.Lock()
	triggers := s.triggers
	s.mu.Unlock()

	for _, t := range triggers {
		if t.Kind != config.OnStart {
			continue
		}
		s.executeTrigger(ctx, t, s.pool.GetNext())
	}
}

// StartPeriodic launches one cooperative task per Periodic trigger; each
// fires immediately, then again on every interval tick, until ctx is
// canceled or the trigger set is replaced (§4.6 Periodic phase). It
// returns once every task has been launched; the tasks themselves keep
// running.
func (s *Scheduler) StartPeriodic(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startPeriodicLocked(ctx)
}

// startPeriodicLocked launches a task per Periodic trigger in s.triggers,
// recording each task's cancel func so a later SetTriggers can stop it.
// Callers must hold s.mu.
func (s *Scheduler) startPeriodicLocked(ctx context.Context) {
	for _, t := range s.triggers {
		if t.Kind != config.Periodic {
			continue
		}
		taskCtx, cancel := context.WithCancel(ctx)
		s.periodicCancel = append(s.periodicCancel, cancel)
		go s.runPeriodic(taskCtx, t)
	}
}

// SetTriggers replaces the configured trigger set, stopping every
// currently running periodic task and starting fresh ones for the new
// Periodic triggers. OnStart triggers in newTriggers are recorded but not
// re-executed — startup triggers fire exactly once, at RunStartup. This
// is how "rulebot run --watch" applies a recompiled rule file's triggers
// to the running engine instead of merely logging that they changed.
func (s *Scheduler) SetTriggers(ctx context.Context, newTriggers []config.Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cancel := range s.periodicCancel {
		cancel()
	}
	s.periodicCancel = nil

	s.triggers = newTriggers
	s.startPeriodicLocked(ctx)
}

func (s *Scheduler) runPeriodic(ctx context.Context, t config.Trigger) {
	s.executeTrigger(ctx, t, s.pool.GetNext())

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.executeTrigger(ctx, t, s.pool.GetNext())
		}
	}
}

// executeTrigger runs t's action against ag, expanding through t.Source
// first if one is configured (§4.7). With no source, the action runs
// once. With a source that fails or produces no output, nothing is
// executed.
func (s *Scheduler) executeTrigger(ctx context.Context, t config.Trigger, ag *agent.Agent) {
	if t.Source == "" {
		s.runAction(ag, t.Action, t.Name)
		return
	}

	label := sourceLabel(t.Source)
	result, err := runShellCommand(ctx, t.Source)
	if err != nil || !result.Success {
		s.log.Warn("source command failed, skipping trigger", "trigger", t.Name, "source", label, "error", err, "stderr", result.Stderr)
		return
	}

	lines := action.NonBlankLines(result.Stdout)
	if len(lines) == 0 {
		s.log.Debug("source produced no output, skipping trigger", "trigger", t.Name, "source", label)
		return
	}

	for i, line := range lines {
		s.log.Debug("executing source line", "trigger", t.Name, "source", label, "line", i+1, "of", len(lines))
		resolved := t.Action.WithCaptures([]string{line})
		s.runAction(ag, resolved, t.Name)
		if i < len(lines)-1 {
			time.Sleep(interLinePacing)
		}
	}
}

func (s *Scheduler) runAction(ag *agent.Agent, act action.Action, triggerName string) {
	if err := action.Execute(ag, nil, act, s.log); err != nil {
		s.log.Error("trigger action failed", "trigger", triggerName, "agent", ag.ID(), "error", err)
	}
}

// sourceLabel tokenizes a source command's name for log context only;
// the command itself always runs through sh -c (runShellCommand), never
// through this tokenization.
func sourceLabel(source string) string {
	tokens, err := shlex.Split(source)
	if err != nil || len(tokens) == 0 {
		return source
	}
	return tokens[0]
}

// commandResult holds a shelled-out source command's outcome: success
// plus captured stdout/stderr.
type commandResult struct {
	Success bool
	Stdout  string
	Stderr  string
}

func runShellCommand(ctx context.Context, command string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		if _, isExit := err.(*exec.ExitError); isExit {
			return result, nil
		}
		return result, fmt.Errorf("running %q: %w", command, err)
	}
	return result, nil
}
