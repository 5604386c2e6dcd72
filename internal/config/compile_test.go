package config

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"2s", 2 * time.Second},
		{"5m", 5 * time.Minute},
		{"1h", time.Hour},
		{"0s", 0},
	}
	for _, c := range cases {
		got, err := parseDuration(c.in)
		if err != nil {
			t.Errorf("parseDuration(%q) returned error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseDuration(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseDurationErrors(t *testing.T) {
	for _, in := range []string{"", "10", "s", "10x", "-5s"} {
		if _, err := parseDuration(in); err == nil {
			t.Errorf("parseDuration(%q) should have failed", in)
		}
	}
}

func TestCompileRuleRejectsBothWhenAndDiffTimeout(t *testing.T) {
	_, err := compileRule(RuleSpec{When: "x", DiffTimeout: "2s", Action: "send_keys", Keys: []string{"Enter"}})
	if err == nil {
		t.Fatal("expected error for rule with both when and diff_timeout")
	}
}

func TestCompileRuleRejectsNeither(t *testing.T) {
	_, err := compileRule(RuleSpec{Action: "send_keys", Keys: []string{"Enter"}})
	if err == nil {
		t.Fatal("expected error for rule with neither when nor diff_timeout")
	}
}

func TestCompileRuleWhen(t *testing.T) {
	r, err := compileRule(RuleSpec{When: `issue #(\d+)`, Action: "send_keys", Keys: []string{"fix ${1}", "Enter"}})
	if err != nil {
		t.Fatalf("compileRule() error: %v", err)
	}
	if r.Kind != When {
		t.Fatalf("r.Kind = %v, want When", r.Kind)
	}
	if !r.Regex.MatchString("issue #742 opened") {
		t.Fatal("compiled regex did not match expected input")
	}
}

func TestCompileRuleEmptyKeysIsANoOpNotAnError(t *testing.T) {
	r, err := compileRule(RuleSpec{When: "x", Action: "send_keys"})
	if err != nil {
		t.Fatalf("compileRule() with empty keys should compile, got error: %v", err)
	}
	if len(r.Action.Keys) != 0 {
		t.Fatalf("r.Action.Keys = %v, want empty", r.Action.Keys)
	}
}

func TestCompileTriggerStartup(t *testing.T) {
	tr, err := compileTrigger(TriggerSpec{Name: "t1", Event: "startup", Action: "send_keys", Keys: []string{"Enter"}})
	if err != nil {
		t.Fatalf("compileTrigger() error: %v", err)
	}
	if tr.Kind != OnStart {
		t.Fatalf("tr.Kind = %v, want OnStart", tr.Kind)
	}
}

func TestCompileTriggerPeriodic(t *testing.T) {
	tr, err := compileTrigger(TriggerSpec{Name: "t1", Event: "timer:1s", Action: "send_keys", Keys: []string{"Enter"}})
	if err != nil {
		t.Fatalf("compileTrigger() error: %v", err)
	}
	if tr.Kind != Periodic || tr.Interval != time.Second {
		t.Fatalf("tr = %+v, want Periodic/1s", tr)
	}
}

func TestCompileTriggerUnknownEvent(t *testing.T) {
	_, err := compileTrigger(TriggerSpec{Name: "t1", Event: "whenever", Action: "send_keys", Keys: []string{"Enter"}})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestCompileRejectsPoolZero(t *testing.T) {
	f := defaultFile()
	f.Agents.Pool = 0
	if _, err := compile(f); err == nil {
		t.Fatal("expected error for pool < 1")
	}
}
