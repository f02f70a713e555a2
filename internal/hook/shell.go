// Package hook runs the shell commands configured to execute before each
// snippet.
package hook

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/mddoctest/internal/config"
	"github.com/fjglira/mddoctest/internal/domain"
)

// ShellHook runs a fixed list of commands, in order, each time it is invoked.
type ShellHook struct {
	commands  []string
	shell     string
	shellFlag string
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewShellHook validates the commands against the blocked patterns.
func NewShellHook(cfg *config.HookConfig, log logrus.FieldLogger) (*ShellHook, error) {
	var timeout time.Duration
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, domain.NewError("hook", "", 0, "invalid hooks.timeout", err)
		}
		timeout = d
	}

	for _, c := range cfg.BeforeEach {
		if err := ValidateCommand(c, cfg.BlockedPatterns); err != nil {
			return nil, domain.NewError("hook", "", 0, err.Error(), nil)
		}
	}

	return &ShellHook{
		commands:  cfg.BeforeEach,
		shell:     cfg.Shell,
		shellFlag: cfg.ShellFlag,
		timeout:   timeout,
		log:       log,
	}, nil
}

// Run executes every command and stops at the first failure.
func (h *ShellHook) Run() error {
	for _, command := range h.commands {
		if err := h.run(command); err != nil {
			return err
		}
	}
	return nil
}

func (h *ShellHook) run(command string) error {
	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	cmd, err := h.command(ctx, command)
	if err != nil {
		return err
	}

	h.log.WithField("command", command).Debug("Running before-each hook")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("before-each command %q failed: %w\n%s", command, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// command builds the exec.Cmd, going through the shell only when needed.
func (h *ShellHook) command(ctx context.Context, command string) (*exec.Cmd, error) {
	command = strings.TrimSpace(command)
	if isComplexCommand(command) {
		return exec.CommandContext(ctx, h.shell, h.shellFlag, command), nil
	}
	parts := shellSplit(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty before-each command")
	}
	return exec.CommandContext(ctx, parts[0], parts[1:]...), nil
}

// isComplexCommand determines if a command needs shell execution (pipes, redirects, etc.).
func isComplexCommand(cmd string) bool {
	complexChars := []string{"|", "&&", "||", ";", ">", "<", ">>", "$(", "`", "&", "*", "$"}
	for _, c := range complexChars {
		if strings.Contains(cmd, c) {
			return true
		}
	}
	return false
}

// shellSplit splits a command string into arguments, respecting quotes.
func shellSplit(s string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if c == quoteChar {
				inQuote = false
			} else {
				current.WriteByte(c)
			}
		} else {
			if c == '"' || c == '\'' {
				inQuote = true
				quoteChar = c
			} else if c == ' ' || c == '\t' {
				if current.Len() > 0 {
					parts = append(parts, current.String())
					current.Reset()
				}
			} else {
				current.WriteByte(c)
			}
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
