package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/trybotster/rulebot/internal/action"
)

// TriggerKind distinguishes the two Trigger variants from §3.
type TriggerKind int

const (
	OnStart TriggerKind = iota
	Periodic
)

// Trigger is a compiled agents.triggers entry.
type Trigger struct {
	Name     string
	Kind     TriggerKind
	Interval time.Duration
	Action   action.Action
	Source   string
	Dedupe   bool
}

// RuleKind distinguishes the two Rule variants from §3.
type RuleKind int

const (
	When RuleKind = iota
	DiffTimeout
)

// Rule is a compiled agents.rules entry.
type Rule struct {
	Kind    RuleKind
	Regex   *regexp.Regexp
	Timeout time.Duration
	Action  action.Action
}

// Config is the compiled, load-time-validated in-memory configuration
// shape from §3: agent dimensions, pool size, and the ordered trigger and
// rule lists.
type Config struct {
	Cols     uint16
	Rows     uint16
	Pool     int
	Triggers []Trigger
	Rules    []Rule
}

const timerEventPrefix = "timer:"

func compile(f File) (*Config, error) {
	if f.Agents.Pool < 1 {
		return nil, fmt.Errorf("agents.pool must be >= 1, got %d", f.Agents.Pool)
	}

	triggers := make([]Trigger, 0, len(f.Agents.Triggers))
	for _, spec := range f.Agents.Triggers {
		t, err := compileTrigger(spec)
		if err != nil {
			return nil, fmt.Errorf("trigger %q: %w", spec.Name, err)
		}
		triggers = append(triggers, t)
	}

	rules := make([]Rule, 0, len(f.Agents.Rules))
	for i, spec := range f.Agents.Rules {
		r, err := compileRule(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, r)
	}

	return &Config{
		Cols:     f.WebUI.Cols,
		Rows:     f.WebUI.Rows,
		Pool:     f.Agents.Pool,
		Triggers: triggers,
		Rules:    rules,
	}, nil
}

func compileTrigger(spec TriggerSpec) (Trigger, error) {
	act, err := compileAction(spec.Action, spec.Keys)
	if err != nil {
		return Trigger{}, err
	}

	var kind TriggerKind
	var interval time.Duration
	switch {
	case spec.Event == "startup":
		kind = OnStart
	case strings.HasPrefix(spec.Event, timerEventPrefix):
		d, err := parseDuration(strings.TrimPrefix(spec.Event, timerEventPrefix))
		if err != nil {
			return Trigger{}, fmt.Errorf("event %q: %w", spec.Event, err)
		}
		kind = Periodic
		interval = d
	default:
		return Trigger{}, fmt.Errorf("unknown event type: %q", spec.Event)
	}

	return Trigger{
		Name:     spec.Name,
		Kind:     kind,
		Interval: interval,
		Action:   act,
		Source:   spec.Source,
		Dedupe:   spec.Dedupe,
	}, nil
}

func compileRule(spec RuleSpec) (Rule, error) {
	hasWhen := spec.When != ""
	hasTimeout := spec.DiffTimeout != ""
	switch {
	case hasWhen && hasTimeout:
		return Rule{}, fmt.Errorf("rule cannot have both 'when' and 'diff_timeout'")
	case !hasWhen && !hasTimeout:
		return Rule{}, fmt.Errorf("rule must have either 'when' or 'diff_timeout'")
	}

	act, err := compileAction(spec.Action, spec.Keys)
	if err != nil {
		return Rule{}, err
	}

	if hasWhen {
		re, err := regexp.Compile(spec.When)
		if err != nil {
			return Rule{}, fmt.Errorf("when %q: %w", spec.When, err)
		}
		return Rule{Kind: When, Regex: re, Action: act}, nil
	}

	d, err := parseDuration(spec.DiffTimeout)
	if err != nil {
		return Rule{}, fmt.Errorf("diff_timeout %q: %w", spec.DiffTimeout, err)
	}
	return Rule{Kind: DiffTimeout, Timeout: d, Action: act}, nil
}

// compileAction validates the action field (only "send_keys" is a live
// variant, per §9) and builds the Action. An empty keys sequence is a
// valid no-op (§4.4), not a config error — it compiles to an Action that
// Execute simply does nothing for.
func compileAction(actionField string, keys []string) (action.Action, error) {
	if actionField == "" {
		return action.Action{}, fmt.Errorf("must have 'action' field")
	}
	if actionField != "send_keys" {
		return action.Action{}, fmt.Errorf("unknown action type: %q", actionField)
	}
	return action.SendKeysAction(keys), nil
}
