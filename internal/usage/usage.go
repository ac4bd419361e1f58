// Package usage scans the file body for references to imported names,
// distinguishing module-style qualified access from direct symbol use.
package usage

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Counts holds per-name reference tallies. Only Qualified references on a
// lower/snake-cased name count as evidence the import is used as a module;
// a PascalCase name followed by `.` is class attribute access and lands in
// AttributeOnResult instead.
type Counts struct {
	Qualified         int // name.member where name is module-styled
	Constructor       int // PascalCase name applied directly
	AttributeOnResult int // attribute access that is not module-style
	Bare              int // any other direct reference
	Exported          int // listed as a string entry of an __all__ assignment
}

func (c Counts) Total() int {
	return c.Qualified + c.Constructor + c.AttributeOnResult + c.Bare + c.Exported
}

// ModuleEvidence reports whether references prove the name is used as a
// module rather than an imported symbol.
func (c Counts) ModuleEvidence() bool {
	return c.Qualified > 0
}

// SymbolEvidence reports direct symbol-style use. An __all__ entry keeps a
// name alive but says nothing about how call sites use it.
func (c Counts) SymbolEvidence() bool {
	return c.Constructor > 0 || c.AttributeOnResult > 0 || c.Bare > 0
}

type Result map[string]Counts

// Analyze parses content with the Python grammar and tallies references to
// the given bound names, ignoring the import statements themselves and any
// text inside string literals.
func Analyze(ctx context.Context, content []byte, bound []string) (Result, error) {
	result := make(Result, len(bound))
	tracked := make(map[string]bool, len(bound))
	for _, name := range bound {
		if name == "" {
			continue
		}
		tracked[name] = true
		result[name] = Counts{}
	}
	if len(tracked) == 0 {
		return result, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	walk(tree.RootNode(), func(node *sitter.Node) {
		switch node.Type() {
		case "identifier":
			name := nodeText(node, content)
			if !tracked[name] {
				return
			}
			counts := result[name]
			classifyReference(node, name, &counts, content)
			result[name] = counts
		case "assignment", "augmented_assignment":
			creditExports(node, tracked, result, content)
		}
	})

	return result, nil
}

// creditExports counts string entries of an __all__ assignment as
// references. In a package __init__.py a re-exported name often appears
// nowhere else.
func creditExports(node *sitter.Node, tracked map[string]bool, result Result, content []byte) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" || nodeText(left, content) != "__all__" {
		return
	}
	right := node.ChildByFieldName("right")
	if right == nil {
		return
	}
	walk(right, func(entry *sitter.Node) {
		if entry.Type() != "string" {
			return
		}
		name := stringLiteralValue(nodeText(entry, content))
		if !tracked[name] {
			return
		}
		counts := result[name]
		counts.Exported++
		result[name] = counts
	})
}

// stringLiteralValue strips prefix letters and the surrounding quotes from
// a string literal's source text. Returns "" for anything unquotable.
func stringLiteralValue(literal string) string {
	value := literal
	for len(value) > 0 {
		switch value[0] {
		case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
			value = value[1:]
			continue
		}
		break
	}
	for _, quote := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(value, quote) && strings.HasSuffix(value, quote) && len(value) >= 2*len(quote) {
			return value[len(quote) : len(value)-len(quote)]
		}
	}
	return ""
}

// walk visits named nodes depth-first, pruning import statements so the
// bindings they introduce are never counted as references.
func walk(node *sitter.Node, visit func(*sitter.Node)) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			continue
		}
		visit(child)
		walk(child, visit)
	}
}

func classifyReference(node *sitter.Node, name string, counts *Counts, content []byte) {
	parent := node.Parent()
	if parent == nil {
		counts.Bare++
		return
	}

	switch parent.Type() {
	case "attribute":
		object := parent.ChildByFieldName("object")
		if !sameNode(object, node) {
			// x.name: the identifier is the member, not a reference
			// to the imported binding.
			return
		}
		if isModuleStyleName(name) {
			counts.Qualified++
			return
		}
		counts.AttributeOnResult++
		return
	case "call":
		function := parent.ChildByFieldName("function")
		if sameNode(function, node) {
			if isModuleStyleName(name) {
				counts.Bare++
				return
			}
			counts.Constructor++
			return
		}
	case "keyword_argument":
		if sameNode(parent.ChildByFieldName("name"), node) {
			return
		}
	}
	counts.Bare++
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

// isModuleStyleName reports a lower/snake-cased identifier. PascalCase
// names are classes by convention and never module evidence.
func isModuleStyleName(name string) bool {
	first, _ := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return false
	}
	return !unicode.IsUpper(first)
}
