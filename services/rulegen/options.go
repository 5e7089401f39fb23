// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rulegen

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// GlobalConflictPolicy decides what happens when two files declare the
// same word GLOBAL.
type GlobalConflictPolicy string

const (
	// GlobalConflictLast silently keeps the most recent origin file.
	GlobalConflictLast GlobalConflictPolicy = "last"

	// GlobalConflictError records an ingestion failure for the file
	// re-declaring the word.
	GlobalConflictError GlobalConflictPolicy = "error"
)

const (
	// DefaultID is the rule name-space prefix used when none is given.
	DefaultID = "KW"

	// DefaultPriority is the load-order prefix used when none is given.
	DefaultPriority = 50
)

// Options configures one Generator.
type Options struct {
	// ID prefixes every generated rule name and output file name.
	ID string `validate:"required,rulename"`

	// Priority is the numeric load-order prefix, 0 through 99.
	Priority int `validate:"min=0,max=99"`

	// Debug enables per-line diagnostics for dropped input.
	Debug bool

	// SingleOutfile merges every artifact into one output file.
	SingleOutfile bool

	// JoinScores keeps describe/score directives in the rule artifacts
	// instead of separate _SCORES files.
	JoinScores bool

	// Dir is the output directory. Empty means "<ID>_rules" under the
	// working directory.
	Dir string

	// GlobalConflict selects the policy for words declared GLOBAL in
	// more than one file.
	GlobalConflict GlobalConflictPolicy `validate:"oneof=last error"`
}

// optionsValidate is the validator instance for generator options.
// Initialized in init() with the rule name check.
var optionsValidate *validator.Validate

// ruleNamePattern accepts identifiers that survive inside generated
// rule names: a letter followed by letters and digits.
var ruleNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

func init() {
	optionsValidate = validator.New()
	_ = optionsValidate.RegisterValidation("rulename", validateRuleName)
}

// validateRuleName validates that a field fits the rule name alphabet.
func validateRuleName(fl validator.FieldLevel) bool {
	return ruleNamePattern.MatchString(fl.Field().String())
}

// DefaultOptions returns the options New starts from before applying
// functional options.
func DefaultOptions() Options {
	return Options{
		ID:             DefaultID,
		Priority:       DefaultPriority,
		JoinScores:     true,
		GlobalConflict: GlobalConflictLast,
	}
}

// Validate checks the options, filling the derived output directory
// when unset.
func (o *Options) Validate() error {
	if o.Dir == "" {
		o.Dir = o.ID + "_rules"
	}
	if err := optionsValidate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// Option configures the Generator.
type Option func(*Options)

// WithID sets the rule name-space identifier.
func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}

// WithPriority sets the numeric load-order prefix.
func WithPriority(p int) Option {
	return func(o *Options) { o.Priority = p }
}

// WithDebug enables per-line diagnostics for dropped input.
func WithDebug(debug bool) Option {
	return func(o *Options) { o.Debug = debug }
}

// WithSingleOutfile merges every artifact into one output file.
func WithSingleOutfile(single bool) Option {
	return func(o *Options) { o.SingleOutfile = single }
}

// WithJoinScores controls whether score directives share the rule
// artifacts.
func WithJoinScores(join bool) Option {
	return func(o *Options) { o.JoinScores = join }
}

// WithDir sets the output directory.
func WithDir(dir string) Option {
	return func(o *Options) { o.Dir = dir }
}

// WithGlobalConflict sets the policy for words declared GLOBAL in more
// than one file.
func WithGlobalConflict(p GlobalConflictPolicy) Option {
	return func(o *Options) { o.GlobalConflict = p }
}
