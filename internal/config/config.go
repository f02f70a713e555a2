package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fjglira/mddoctest/internal/domain"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "mddoctest.yaml"

// Config is the top-level configuration struct.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Extract   ExtractConfig   `yaml:"extract"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Transform TransformConfig `yaml:"transform"`
	Hooks     HookConfig      `yaml:"hooks"`
	Execution ExecutionConfig `yaml:"execution"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type InputConfig struct {
	Directories []string `yaml:"directories"`
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Recursive   *bool    `yaml:"recursive"` // pointer to distinguish unset from false
}

type ExtractConfig struct {
	Languages         []string `yaml:"languages"`
	PseudocodePattern *string  `yaml:"pseudocode_pattern"` // empty string disables the filter
}

type SandboxConfig struct {
	Globals      map[string]any          `yaml:"globals"`
	Require      map[string]ModuleConfig `yaml:"require"`
	RegexRequire []RegexRequireConfig    `yaml:"regex_require"`
	Setup        []string                `yaml:"setup"`
}

// ModuleConfig provides a module either as plain data or as a JavaScript
// file whose module.exports is the value.
type ModuleConfig struct {
	Value  any    `yaml:"value"`
	Script string `yaml:"script"`
}

// RegexRequireConfig provides every module whose name matches Pattern. A
// Script must export a function; it is called with the full match and the
// capture groups.
type RegexRequireConfig struct {
	Pattern string `yaml:"pattern"`
	Value   any    `yaml:"value"`
	Script  string `yaml:"script"`
}

type TransformConfig struct {
	Enabled *bool           `yaml:"enabled"`
	Target  string          `yaml:"target"`
	Replace []ReplaceConfig `yaml:"replace"`
}

// ReplaceConfig is one regular expression rewrite applied to snippet code
// before anything else.
type ReplaceConfig struct {
	Pattern string `yaml:"pattern"`
	With    string `yaml:"with"`
}

type HookConfig struct {
	BeforeEach      []string `yaml:"before_each"`
	Shell           string   `yaml:"shell"`
	ShellFlag       string   `yaml:"shell_flag"`
	Timeout         string   `yaml:"timeout"`
	BlockedPatterns []string `yaml:"blocked_patterns"`
}

type ExecutionConfig struct {
	Timeout     string `yaml:"timeout"`
	ShowConsole bool   `yaml:"show_console"`
	KeepGoing   bool   `yaml:"keep_going"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TransformEnabled reports whether the source transform runs.
func (c *Config) TransformEnabled() bool {
	return c.Transform.Enabled == nil || *c.Transform.Enabled
}

// Load reads a YAML configuration file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError("config", path, 0, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError("config", path, 0, "failed to parse config file", err)
	}

	return cfg, nil
}
