// Package config loads and compiles the YAML rule file: the web_ui block,
// the agent pool size, and the ordered trigger and rule lists. Compilation
// (regex compiling, duration parsing, trigger/rule shape validation) all
// happens here, at load time, so a bad rule file is rejected before any
// PTY is spawned — never at runtime.
package config

// File is the raw YAML shape, unmarshaled directly by gopkg.in/yaml.v3
// before compilation into a Config.
type File struct {
	WebUI  WebUI      `yaml:"web_ui"`
	Agents AgentsSpec `yaml:"agents"`
}

// WebUI mirrors the config file's web_ui block. The core only consults
// Cols and Rows for agent sizing; Enabled/Host/BasePort exist because an
// external web-UI loader shares this same file, not because the engine
// acts on them.
type WebUI struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	BasePort uint16 `yaml:"base_port"`
	Cols     uint16 `yaml:"cols"`
	Rows     uint16 `yaml:"rows"`
}

// AgentsSpec mirrors the config file's agents block.
type AgentsSpec struct {
	Pool     int           `yaml:"pool"`
	Triggers []TriggerSpec `yaml:"triggers"`
	Rules    []RuleSpec    `yaml:"rules"`
}

// TriggerSpec is one entry of agents.triggers, before compilation.
type TriggerSpec struct {
	Name   string   `yaml:"name"`
	Event  string   `yaml:"event"`
	Action string   `yaml:"action"`
	Keys   []string `yaml:"keys"`
	Source string   `yaml:"source"`
	Dedupe bool     `yaml:"dedupe"`
}

// RuleSpec is one entry of agents.rules, before compilation. Exactly one
// of When / DiffTimeout must be set.
type RuleSpec struct {
	When        string   `yaml:"when"`
	DiffTimeout string   `yaml:"diff_timeout"`
	Action      string   `yaml:"action"`
	Keys        []string `yaml:"keys"`
}

// defaultFile returns the document defaults named in §6 before YAML
// unmarshaling overlays whatever the file specifies.
func defaultFile() File {
	return File{
		WebUI: WebUI{
			Enabled:  true,
			Host:     "localhost",
			BasePort: 9990,
			Cols:     80,
			Rows:     24,
		},
		Agents: AgentsSpec{
			Pool: 1,
		},
	}
}
