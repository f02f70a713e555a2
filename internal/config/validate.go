package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/fjglira/mddoctest/internal/domain"
	"github.com/fjglira/mddoctest/internal/transpile"
)

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	// Input validation
	if len(cfg.Input.Include) == 0 {
		errs = append(errs, "input.include must not be empty")
	}

	// Extract validation
	if len(cfg.Extract.Languages) == 0 {
		errs = append(errs, "extract.languages must not be empty")
	}
	if p := cfg.Extract.PseudocodePattern; p != nil && *p != "" {
		if _, err := regexp.Compile(*p); err != nil {
			errs = append(errs, fmt.Sprintf("extract.pseudocode_pattern is not a valid regex: %v", err))
		}
	}

	// Sandbox validation
	for _, name := range []string{"require", "console"} {
		if _, ok := cfg.Sandbox.Globals[name]; ok {
			errs = append(errs, fmt.Sprintf("sandbox.globals must not define %q", name))
		}
	}
	for name, m := range cfg.Sandbox.Require {
		if (m.Value == nil) == (m.Script == "") {
			errs = append(errs, fmt.Sprintf("sandbox.require.%s must set exactly one of value or script", name))
		}
	}
	for i, r := range cfg.Sandbox.RegexRequire {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			errs = append(errs, fmt.Sprintf("sandbox.regex_require[%d].pattern is not a valid regex: %v", i, err))
		}
		if (r.Value == nil) == (r.Script == "") {
			errs = append(errs, fmt.Sprintf("sandbox.regex_require[%d] must set exactly one of value or script", i))
		}
	}

	// Transform validation
	if t := strings.ToLower(cfg.Transform.Target); t != "" && !slices.Contains(transpile.Targets(), t) {
		errs = append(errs, fmt.Sprintf("transform.target must be one of: %s (got %q)", strings.Join(transpile.Targets(), ", "), cfg.Transform.Target))
	}
	for i, r := range cfg.Transform.Replace {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			errs = append(errs, fmt.Sprintf("transform.replace[%d].pattern is not a valid regex: %v", i, err))
		}
	}

	// Durations
	if cfg.Execution.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Execution.Timeout); err != nil {
			errs = append(errs, fmt.Sprintf("execution.timeout is not a valid duration: %v", err))
		}
	}
	if cfg.Hooks.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Hooks.Timeout); err != nil {
			errs = append(errs, fmt.Sprintf("hooks.timeout is not a valid duration: %v", err))
		}
	}
	if len(cfg.Hooks.BeforeEach) > 0 && cfg.Hooks.Shell == "" {
		errs = append(errs, "hooks.shell must not be empty when hooks.before_each is set")
	}

	// Validate logging level
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs = append(errs, fmt.Sprintf("logging.level must be one of: trace, debug, info, warn, error (got %q)", cfg.Logging.Level))
		}
	}

	if len(errs) > 0 {
		return domain.NewError("config", "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), domain.ErrConfiguration)
	}

	return nil
}
