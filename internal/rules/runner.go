package rules

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/trybotster/rulebot/internal/action"
	"github.com/trybotster/rulebot/internal/agent"
)

// idlePoll is the sleep between iterations when the text channel is
// empty, preventing the per-agent rule task from busy-waiting (§4.3).
const idlePoll = 10 * time.Millisecond

// Runner is the per-agent rule-evaluation task (§4.3, §5): it owns one
// Agent's TimerSet exclusively and is the only thing allowed to consume
// its decoded-text subscription. Exactly one Runner exists per Agent —
// never multiplex several Agents onto one Runner (§9).
type Runner struct {
	mu     sync.Mutex
	engine *Engine
	timers *TimerSet

	agent *agent.Agent
	log   *slog.Logger
}

// NewRunner builds a Runner for one Agent against the shared Engine.
func NewRunner(engine *Engine, ag *agent.Agent, log *slog.Logger) *Runner {
	return &Runner{engine: engine, timers: engine.NewTimerSet(), agent: ag, log: log}
}

// SetEngine atomically swaps the rule set this Runner evaluates against,
// rebuilding its TimerSet to match the new engine's DiffTimeout rules.
// Used by config hot-reload to apply a newly compiled rule file without
// restarting the Runner's task.
func (r *Runner) SetEngine(engine *Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engine = engine
	r.timers = engine.NewTimerSet()
}

func (r *Runner) current() (*Engine, *TimerSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine, r.timers
}

// Run consumes the Agent's text broadcast until ctx is canceled. It
// drains every currently available chunk with a non-blocking receive,
// evaluates timers at least every 100ms, and sleeps 10ms when nothing
// was available — matching the evaluation cadence in §4.3.
func (r *Runner) Run(ctx context.Context) {
	id, textCh := r.agent.SubscribeText()
	defer r.agent.UnsubscribeText(id)

	lastTick := now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		gotChunk := r.drainAvailable(textCh)

		if elapsed := now().Sub(lastTick); elapsed >= 100*time.Millisecond {
			r.checkTimers()
			lastTick = now()
		}

		if !gotChunk {
			time.Sleep(idlePoll)
		}
	}
}

func (r *Runner) drainAvailable(textCh <-chan string) bool {
	gotChunk := false
	for {
		select {
		case chunk, ok := <-textCh:
			if !ok {
				return gotChunk
			}
			gotChunk = true
			r.handleChunk(chunk)
		default:
			return gotChunk
		}
	}
}

// handleChunk applies the Rule Engine's gating and pattern-matching
// rules to one received text chunk (§4.3 Gating, Pattern matching).
func (r *Runner) handleChunk(chunk string) {
	if r.agent.Status() != agent.Active {
		return
	}

	engine, timers := r.current()
	engine.ResetTimers(timers)

	clean := StripANSI(chunk)
	for _, line := range action.NonBlankLines(clean) {
		act, matched := engine.MatchLine(line)
		if !matched {
			continue
		}
		if err := action.Execute(r.agent, nil, act, r.log); err != nil {
			r.log.Error("rule action failed", "agent", r.agent.ID(), "line", line, "error", err)
		}
	}
}

func (r *Runner) checkTimers() {
	if r.agent.Status() != agent.Active {
		return
	}
	engine, timers := r.current()
	for _, act := range engine.CheckTimers(timers) {
		if err := action.Execute(r.agent, nil, act, r.log); err != nil {
			r.log.Error("diff_timeout action failed", "agent", r.agent.ID(), "error", err)
		}
	}
}
