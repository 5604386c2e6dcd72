// Package rules implements the Rule Engine (C5) and the per-agent
// Inactivity Timer Set (C6).
package rules

import (
	"regexp"
	"time"

	"github.com/trybotster/rulebot/internal/action"
	"github.com/trybotster/rulebot/internal/config"
)

// ansiCSI strips common CSI sequences of the form ESC [ <params> <letter>
// for letters in {m, G, K, H, F} — enough to keep a regex matcher from
// tripping over color codes and cursor moves, without attempting full
// terminal emulation here (that lives in the Screen Model, per §4.3).
var ansiCSI = regexp.MustCompile(`\x1b\[[0-9;]*[mGKHF]`)

// StripANSI removes the escape sequences ansiCSI matches.
func StripANSI(s string) string {
	return ansiCSI.ReplaceAllString(s, "")
}

// Engine evaluates the ordered rule list from a compiled Config against
// incoming output chunks and against per-agent Timer Sets. It holds no
// per-agent state itself — one Engine is shared read-only across every
// agent's rule-evaluation task; each task owns its own TimerSet.
type Engine struct {
	rules        []config.Rule
	timerRuleIdx []int // indices into rules that are DiffTimeout, in order
}

// NewEngine compiles the rule-evaluation order out of cfg's Rules.
func NewEngine(rules []config.Rule) *Engine {
	e := &Engine{rules: rules}
	for i, r := range rules {
		if r.Kind == config.DiffTimeout {
			e.timerRuleIdx = append(e.timerRuleIdx, i)
		}
	}
	return e
}

// NewTimerSet builds a TimerSet sized to this Engine's DiffTimeout rules,
// for a single agent's rule-evaluation task to own exclusively.
func (e *Engine) NewTimerSet() *TimerSet {
	durations := make([]time.Duration, len(e.timerRuleIdx))
	for i, idx := range e.timerRuleIdx {
		durations[i] = e.rules[idx].Timeout
	}
	return newTimerSet(durations)
}

// MatchLine scans the When rules in configured order and returns the
// Action of the first regex match, with capture groups substituted
// (§4.3, §8 property 4). ok is false if no When rule matched.
func (e *Engine) MatchLine(line string) (resolved action.Action, ok bool) {
	for _, r := range e.rules {
		if r.Kind != config.When {
			continue
		}
		m := r.Regex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		groups := m[1:] // skip index 0, the whole match
		return r.Action.WithCaptures(groups), true
	}
	return action.Action{}, false
}

// CheckTimers evaluates every DiffTimeout rule against ts and returns the
// Actions of any that just crossed their duration without having
// already fired this quiescent interval (§4.3 step 3, §8 property 3).
func (e *Engine) CheckTimers(ts *TimerSet) []action.Action {
	fired := ts.checkDue()
	if len(fired) == 0 {
		return nil
	}
	actions := make([]action.Action, 0, len(fired))
	for _, i := range fired {
		actions = append(actions, e.rules[e.timerRuleIdx[i]].Action)
	}
	return actions
}

// ResetTimers resets ts's last-activity instant and all triggered
// latches. Called whenever output is observed, whether or not it matched
// a When rule (§4.3 steps 1-2 collapse to this single rule: any output
// resets the timers, fixing the reset-on-match-only bug named in §9
// bullet 1).
func (e *Engine) ResetTimers(ts *TimerSet) {
	ts.reset()
}
