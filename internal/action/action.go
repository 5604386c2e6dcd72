// Package action defines the Action sum type, key-token encoding, and the
// executor that applies an Action to an Agent and/or the Queue Manager.
package action

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies which Action variant is populated. SendKeys is the only
// kind the config loader produces; the remaining kinds keep this type
// extensible. Execute applies Enqueue/EnqueueDedupe when given an
// Enqueuer and logs and ignores Workflow, Entry and Resume.
type Kind int

const (
	SendKeys Kind = iota
	Workflow
	Enqueue
	EnqueueDedupe
	Entry
	Resume
)

func (k Kind) String() string {
	switch k {
	case SendKeys:
		return "send_keys"
	case Workflow:
		return "workflow"
	case Enqueue:
		return "enqueue"
	case EnqueueDedupe:
		return "enqueue_dedupe"
	case Entry:
		return "entry"
	case Resume:
		return "resume"
	default:
		return "unknown"
	}
}

// Action is the unit of work the rule engine and trigger scheduler
// produce. Keys is populated for SendKeys; the other fields are reserved
// for the dormant variants.
type Action struct {
	Kind Kind
	Keys []string

	QueueName string // Enqueue / EnqueueDedupe
	Item      string // Enqueue / EnqueueDedupe
}

// SendKeysAction builds the one live Action variant.
func SendKeysAction(keys []string) Action {
	return Action{Kind: SendKeys, Keys: keys}
}

var captureRef = regexp.MustCompile(`\$\{(\d+)\}`)

// SubstituteCaptures replaces every ${N} occurrence (1-based) in each key
// token with groups[N-1], or the empty string if N is out of range. Used
// both for regex capture-group substitution (§4.3) and for source-expansion's
// ${1} line substitution (§4.7), which is the same mechanism with a single
// group.
func SubstituteCaptures(keys []string, groups []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = captureRef.ReplaceAllStringFunc(key, func(m string) string {
			sub := captureRef.FindStringSubmatch(m)
			var n int
			fmt.Sscanf(sub[1], "%d", &n)
			if n < 1 || n > len(groups) {
				return ""
			}
			return groups[n-1]
		})
	}
	return out
}

// WithCaptures returns a copy of a with its Keys resolved against groups.
func (a Action) WithCaptures(groups []string) Action {
	resolved := a
	resolved.Keys = SubstituteCaptures(a.Keys, groups)
	return resolved
}

// KeySender is the capability an Agent exposes to the executor: parse one
// key token and write its bytes to the PTY.
type KeySender interface {
	SendKeys(token string) error
}

// Enqueuer is the capability the Queue Manager exposes to the executor,
// for the dormant Enqueue/EnqueueDedupe variants.
type Enqueuer interface {
	Enqueue(queue, item string) error
	EnqueueDedupe(queue, item string) (bool, error)
}

// Logger is the minimal logging capability Execute needs; *slog.Logger
// satisfies it.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Execute applies a to sender (and, for the dormant queue variants, to
// enqueuer). For SendKeys it writes each parsed key token in order,
// sleeping exactly 100ms between consecutive tokens. A write failure on
// one token is logged and aborts the remaining tokens in this Action; the
// caller is still free to execute further Actions from the same
// evaluation cycle.
func Execute(sender KeySender, enqueuer Enqueuer, a Action, log Logger) error {
	switch a.Kind {
	case SendKeys:
		return executeSendKeys(sender, a.Keys, log)
	case Enqueue:
		if enqueuer == nil {
			log.Warn("enqueue action with no queue manager wired", "queue", a.QueueName)
			return nil
		}
		return enqueuer.Enqueue(a.QueueName, a.Item)
	case EnqueueDedupe:
		if enqueuer == nil {
			log.Warn("enqueue_dedupe action with no queue manager wired", "queue", a.QueueName)
			return nil
		}
		_, err := enqueuer.EnqueueDedupe(a.QueueName, a.Item)
		return err
	default:
		log.Warn("action kind is not implemented, ignoring", "kind", a.Kind.String())
		return nil
	}
}

func executeSendKeys(sender KeySender, keys []string, log Logger) error {
	for i, token := range keys {
		if err := sender.SendKeys(token); err != nil {
			log.Error("send_keys failed, aborting remaining keys in this action", "token", token, "error", err)
			return err
		}
		if i < len(keys)-1 {
			sleepInterKey()
		}
	}
	return nil
}

// NonBlankLines splits text on CR or LF and drops any line that is empty
// once surrounding whitespace is trimmed. Used both for rule-engine line
// splitting (the text broadcast can carry bare \r redraws, not just \n)
// and for enqueue_lines.
func NonBlankLines(text string) []string {
	split := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	lines := make([]string, 0, len(split))
	for _, line := range split {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
