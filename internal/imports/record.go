// Package imports parses scanned source lines into logical import
// records, one per statement regardless of physical line span.
package imports

import "strings"

type Kind string

const (
	KindPlain Kind = "plain"
	KindFrom  Kind = "from"
)

type Context string

const (
	ContextTopLevel      Context = "top_level"
	ContextTypeChecking  Context = "type_checking_block"
	ContextFunctionLocal Context = "function_local"
)

// Name is one imported binding: a module path (plain imports) or a symbol
// (from-imports), with its optional alias.
type Name struct {
	Name  string
	Alias string
}

// Bound returns the local identifier the import binds. A plain dotted
// import without an alias binds its root segment.
func (n Name) Bound() string {
	if n.Alias != "" {
		return n.Alias
	}
	if index := strings.IndexByte(n.Name, '.'); index >= 0 {
		return n.Name[:index]
	}
	return n.Name
}

// Record is one logical import statement.
type Record struct {
	Kind         Kind
	Modules      []Name // plain: one or more module paths with aliases
	Module       string // from: dotted module path, leading dots stripped
	RelativeDots int    // from: number of leading dots
	Names        []Name // from: imported symbols
	Wildcard     bool   // from X import *
	StartLine    int    // 0-based inclusive physical range
	EndLine      int
	Context      Context
	PragmaOff    bool
	Indent       string
}

// PrimaryModule is the module path used for classification and ordering.
func (r Record) PrimaryModule() string {
	if r.Kind == KindFrom {
		return r.Module
	}
	if len(r.Modules) > 0 {
		return r.Modules[0].Name
	}
	return ""
}

// BoundNames returns every local identifier the record binds, with the
// element it came from. Wildcards bind nothing knowable.
func (r Record) BoundNames() []Name {
	if r.Kind == KindPlain {
		return r.Modules
	}
	if r.Wildcard {
		return nil
	}
	return r.Names
}

// IsFuture reports a `from __future__ import ...` statement, which is
// pinned to the top of the import region and never removed.
func (r Record) IsFuture() bool {
	return r.Kind == KindFrom && r.Module == "__future__"
}
