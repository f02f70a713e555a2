package config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	recursive := true
	enabled := true
	pseudocode := `\.\.\.`
	return &Config{
		Input: InputConfig{
			Directories: []string{"."},
			Include:     []string{"*.md", "*.markdown", "*.mdx", "*.adoc", "*.asciidoc"},
			Exclude:     []string{"vendor/**", "node_modules/**", ".git/**"},
			Recursive:   &recursive,
		},
		Extract: ExtractConfig{
			Languages:         []string{"javascript", "js", "es6"},
			PseudocodePattern: &pseudocode,
		},
		Transform: TransformConfig{
			Enabled: &enabled,
			Target:  "es2017",
		},
		Hooks: HookConfig{
			Shell:     "/bin/sh",
			ShellFlag: "-c",
			Timeout:   "30s",
			BlockedPatterns: []string{
				"rm -rf /",
				"mkfs",
				"dd if=",
				"format c:",
				"> /dev/sd",
			},
		},
		Execution: ExecutionConfig{
			Timeout: "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
