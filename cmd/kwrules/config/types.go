// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/kwrules/services/rulegen"
	"github.com/AleutianAI/kwrules/services/rulegen/lint"
)

// CurrentConfigVersion tags the config schema this binary writes and
// understands.
const CurrentConfigVersion = "1"

// KwrulesConfig is the full on-disk configuration. Every field has a
// matching command-line flag; flags win when both are set.
type KwrulesConfig struct {
	Meta MetaConfig `yaml:"meta"`

	// Rules configures the generator: name-space, priority, output
	// layout.
	Rules RulesConfig `yaml:"rules"`

	// Lint configures the external rule validator.
	Lint LintConfig `yaml:"lint"`

	// Watch configures the source watcher.
	Watch WatchConfig `yaml:"watch"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

type RulesConfig struct {
	// Id prefixes every generated rule name and artifact. Empty means
	// the built-in default ("KW").
	Id string `yaml:"id"`

	// Priority is the two-digit load-order prefix. Zero means the
	// built-in default (50); an explicit priority 0 is flag-only.
	Priority int `yaml:"priority" validate:"min=0,max=99"`

	// Dir is the output directory. Empty derives "<ID>_rules".
	Dir string `yaml:"dir"`

	// SingleOutfile merges every artifact into one output file.
	SingleOutfile bool `yaml:"single_outfile"`

	// SplitScores moves describe/score directives to separate _SCORES
	// files instead of keeping them next to their rules.
	SplitScores bool `yaml:"split_scores"`

	// GlobalConflict is the policy when two files declare the same
	// word GLOBAL: "last" or "error".
	GlobalConflict string `yaml:"global_conflict" validate:"omitempty,oneof=last error"`
}

type LintConfig struct {
	// Command is the validator binary. Empty means "spamassassin".
	Command string `yaml:"command"`

	// TimeoutSeconds bounds one validator run. Zero means 60.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"min=0"`
}

type WatchConfig struct {
	// DebounceMillis is the settle window before changed sources
	// trigger a regeneration. Zero means 250.
	DebounceMillis int `yaml:"debounce_millis" validate:"min=0"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Dir enables JSON file logging when set.
	Dir string `yaml:"dir"`

	// JSON switches stderr logs to JSON format.
	JSON bool `yaml:"json"`
}

var configValidate = validator.New()

// Validate checks cross-field constraints the YAML schema can't.
func (c *KwrulesConfig) Validate() error {
	return configValidate.Struct(c)
}

func DefaultConfig() KwrulesConfig {
	return KwrulesConfig{
		Meta: MetaConfig{Version: CurrentConfigVersion},
		Rules: RulesConfig{
			Id:             rulegen.DefaultID,
			Priority:       rulegen.DefaultPriority,
			GlobalConflict: string(rulegen.GlobalConflictLast),
		},
		Lint: LintConfig{
			Command:        lint.DefaultCommand,
			TimeoutSeconds: int(lint.DefaultTimeout.Seconds()),
		},
		Watch: WatchConfig{
			DebounceMillis: 250,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
