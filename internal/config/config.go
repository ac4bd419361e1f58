// Package config carries the analysis configuration: the alias policy
// table, typing-exempt modules, project roots, and formatting width.
// A Config is loaded once per invocation and treated as immutable while
// any file pipeline is in flight.
package config

import (
	"fmt"
	"sort"
)

const DefaultMaxLineWidth = 88

type Config struct {
	// AliasTable maps a module path to its one accepted short alias.
	AliasTable map[string]string
	// TypingExemptModules lists modules whose symbol imports are never
	// flagged (matched exactly or by dotted prefix).
	TypingExemptModules []string
	// FirstPartyRoots are declared internal library names, matched only
	// at the root position of a dotted module path.
	FirstPartyRoots []string
	// LocalSourceRoots are top-level packages under the project's own
	// source tree, matched only at the root position.
	LocalSourceRoots []string
	// MaxLineWidth is the wrapping threshold for rewritten imports.
	MaxLineWidth int
}

// Default returns the built-in configuration. The alias table carries the
// community-standard abbreviations; everything else starts empty.
func Default() *Config {
	return &Config{
		AliasTable: map[string]string{
			"numpy":             "np",
			"pandas":            "pd",
			"matplotlib.pyplot": "plt",
			"tensorflow":        "tf",
			"seaborn":           "sns",
			"datetime":          "dt",
		},
		TypingExemptModules: []string{"typing", "typing_extensions", "collections.abc"},
		MaxLineWidth:        DefaultMaxLineWidth,
	}
}

func (c *Config) Validate() error {
	if c.MaxLineWidth < 20 {
		return fmt.Errorf("max line width must be at least 20, got %d", c.MaxLineWidth)
	}
	for module, alias := range c.AliasTable {
		if module == "" || alias == "" {
			return fmt.Errorf("alias table entries must have both module and alias, got %q: %q", module, alias)
		}
	}
	return nil
}

// IsTypingExempt reports whether modulePath matches an exempt module
// exactly or lives under one as a dotted submodule.
func (c *Config) IsTypingExempt(modulePath string) bool {
	for _, exempt := range c.TypingExemptModules {
		if modulePath == exempt {
			return true
		}
		if len(modulePath) > len(exempt) && modulePath[:len(exempt)] == exempt && modulePath[len(exempt)] == '.' {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can derive a variant without
// mutating a shared configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.AliasTable = make(map[string]string, len(c.AliasTable))
	for module, alias := range c.AliasTable {
		clone.AliasTable[module] = alias
	}
	clone.TypingExemptModules = append([]string(nil), c.TypingExemptModules...)
	clone.FirstPartyRoots = append([]string(nil), c.FirstPartyRoots...)
	clone.LocalSourceRoots = append([]string(nil), c.LocalSourceRoots...)
	return &clone
}

// SortedAliasModules returns the alias table keys in stable order.
func (c *Config) SortedAliasModules() []string {
	modules := make([]string, 0, len(c.AliasTable))
	for module := range c.AliasTable {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}
