// Package classify assigns each imported module path a category that
// controls ordering and symbol-import policy.
package classify

import (
	"strings"

	"pyfix/internal/config"
	"pyfix/internal/pystdlib"
)

type Category string

const (
	StandardLibrary Category = "standard_library"
	ThirdParty      Category = "third_party"
	FirstParty      Category = "first_party"
	LocalPath       Category = "local_path"
	TypingExempt    Category = "typing_exempt"
)

// Module classifies a dotted module path. Categories are checked in strict
// priority order, first match wins, so a path maps to exactly one category.
//
// First-party and local roots match ONLY at the root position of the dotted
// path: a nested directory that happens to share a name with a third-party
// package must not capture it. A path matching nothing defaults to
// third_party rather than failing.
func Module(modulePath string, cfg *config.Config) Category {
	if modulePath == "" {
		return ThirdParty
	}
	if cfg.IsTypingExempt(modulePath) {
		return TypingExempt
	}
	if pystdlib.IsStandardModule(modulePath) {
		return StandardLibrary
	}
	root := rootSegment(modulePath)
	for _, declared := range cfg.FirstPartyRoots {
		if root == declared {
			return FirstParty
		}
	}
	for _, declared := range cfg.LocalSourceRoots {
		if root == declared {
			return LocalPath
		}
	}
	return ThirdParty
}

// OrderingGroup maps a category to its position in the fixed group order.
// Typing-exempt modules fall into their natural group: standard library
// when their root is in the standard table, third-party otherwise.
func OrderingGroup(modulePath string, category Category) int {
	switch category {
	case StandardLibrary:
		return 0
	case TypingExempt:
		if pystdlib.IsStandardModule(modulePath) {
			return 0
		}
		return 1
	case ThirdParty:
		return 1
	case FirstParty:
		return 2
	case LocalPath:
		return 3
	default:
		return 1
	}
}

func rootSegment(modulePath string) string {
	if index := strings.IndexByte(modulePath, '.'); index >= 0 {
		return modulePath[:index]
	}
	return modulePath
}
