package action

import "time"

// interKeyPacing is the mandatory delay between consecutive key tokens of
// a SendKeys action (§4.4, §8 property 7). Exactly 100ms everywhere; no
// legacy 50ms exception survives the rebuild.
const interKeyPacing = 100 * time.Millisecond

func sleepInterKey() {
	time.Sleep(interKeyPacing)
}

var namedKeys = map[string][]byte{
	"Enter":   {0x0d},
	"Tab":     {0x09},
	"Escape":  {0x1b},
	"C-[":     {0x1b},
	"^[":      {0x1b},
	"Space":   {' '},
	"Up":      {0x1b, '[', 'A'},
	"Down":    {0x1b, '[', 'B'},
	"Right":   {0x1b, '[', 'C'},
	"Left":    {0x1b, '[', 'D'},
	"C-Up":    []byte("\x1b[1;5A"),
	"C-Down":  []byte("\x1b[1;5B"),
	"C-Right": []byte("\x1b[1;5C"),
	"C-Left":  []byte("\x1b[1;5D"),
	"Home":    []byte("\x1b[H"),
	"End":     []byte("\x1b[F"),
	"PageUp":  []byte("\x1b[5~"),
	"PageDown": []byte("\x1b[6~"),
	"Insert":  []byte("\x1b[2~"),
	"Delete":  []byte("\x1b[3~"),
	"F1":      []byte("\x1bOP"),
	"F2":      []byte("\x1bOQ"),
	"F3":      []byte("\x1bOR"),
	"F4":      []byte("\x1bOS"),
	"F5":      []byte("\x1b[15~"),
	"F6":      []byte("\x1b[17~"),
	"F7":      []byte("\x1b[18~"),
	"F8":      []byte("\x1b[19~"),
	"F9":      []byte("\x1b[20~"),
	"F10":     []byte("\x1b[21~"),
	"F11":     []byte("\x1b[23~"),
	"F12":     []byte("\x1b[24~"),
	"C-@":     {0x00},
	"C-Space": {0x00},
	"C-\\":    {0x1c},
	"^\\":     {0x1c},
	"C-]":     {0x1d},
	"^]":      {0x1d},
	"C-^":     {0x1e},
	"C-/":     {0x1e},
	"C--":     {0x1f},
	"C-_":     {0x1f},
	"\\r":     {0x0d},
}

// ParseKeyToken turns one key token from a rule or trigger's key list into
// the literal bytes to write to the PTY, per the table in §6. A literal
// "\r" is treated as Enter. Anything not recognized by name or as a
// Ctrl-chord is sent verbatim as UTF-8 bytes.
func ParseKeyToken(token string) []byte {
	if token == "\r" {
		return []byte{0x0d}
	}
	if bytes, ok := namedKeys[token]; ok {
		return bytes
	}
	if b, ok := parseCtrlChord(token); ok {
		return []byte{b}
	}
	return []byte(token)
}

// parseCtrlChord recognizes "C-<letter>" and "^<letter>" chords not
// already covered by the named-key table above, mapping the letter to its
// control-code byte (lowercase and uppercase both map to the same byte,
// matching a terminal's own Ctrl-key behavior).
func parseCtrlChord(token string) (byte, bool) {
	var letter byte
	switch {
	case len(token) == 3 && token[0] == 'C' && token[1] == '-':
		letter = token[2]
	case len(token) == 2 && token[0] == '^':
		letter = token[1]
	default:
		return 0, false
	}
	switch {
	case letter >= 'a' && letter <= 'z':
		return letter - 'a' + 1, true
	case letter >= 'A' && letter <= 'Z':
		return letter - 'A' + 1, true
	default:
		return 0, false
	}
}
