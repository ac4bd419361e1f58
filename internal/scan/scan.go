// Package scan splits Python source text into logical source lines,
// resolving string/comment state once so later passes never re-derive it.
package scan

import (
	"fmt"
	"regexp"
	"strings"
)

// SourceLine is one physical line with its lexical state. Immutable once
// scanned. Code preserves column positions: string interiors are masked
// with spaces and trailing comments are stripped.
type SourceLine struct {
	Index        int    // 0-based physical line index
	Raw          string // line text without trailing newline
	Code         string // live code with string interiors masked
	Comment      string // trailing comment text without the leading '#'
	InString     bool   // the entire line is interior of a multi-line string
	CommentOnly  bool   // blank line or comment-only line
	PragmaOff    bool   // inside a "fmt: off" region
	TypeChecking bool   // inside the body of an `if TYPE_CHECKING:` block
}

type Result struct {
	Lines    []SourceLine
	Warnings []string
}

var (
	pragmaPattern       = regexp.MustCompile(`^\s*fmt:\s*(off|on)\s*$`)
	typeCheckingPattern = regexp.MustCompile(`^(\s*)if\s+(typing\.)?TYPE_CHECKING\s*:\s*$`)
)

type tripleState struct {
	open      bool
	delimiter byte
	raw       bool
	startLine int
}

// File scans raw file text. Scanning never fails: an unterminated string
// literal swallows the remainder of the file and produces a warning.
func File(text string) Result {
	lines := strings.Split(text, "\n")
	result := Result{Lines: make([]SourceLine, 0, len(lines))}

	var triple tripleState
	pragmaOff := false

	for index, raw := range lines {
		line := SourceLine{Index: index, Raw: raw, PragmaOff: pragmaOff}

		offset := 0
		if triple.open {
			closeAt := findTripleClose(raw, triple.delimiter, triple.raw)
			if closeAt < 0 {
				line.InString = true
				result.Lines = append(result.Lines, line)
				continue
			}
			offset = closeAt + 3
			triple.open = false
		}

		code, comment, next := scanLiveText(raw, offset, index)
		triple = next
		line.Code = strings.Repeat(" ", offset) + code
		line.Comment = comment
		line.CommentOnly = offset == 0 && strings.TrimSpace(line.Code) == ""

		if line.CommentOnly && comment != "" {
			if match := pragmaPattern.FindStringSubmatch(comment); match != nil {
				pragmaOff = match[1] == "off"
				line.PragmaOff = true
			}
		}

		result.Lines = append(result.Lines, line)
	}

	if triple.open {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"unterminated string literal opened on line %d; treating remainder of file as string content",
			triple.startLine+1))
	}

	markTypeCheckingBlocks(result.Lines)
	return result
}

// scanLiveText masks string interiors and strips the trailing comment from
// the live portion of a line starting at offset. Masking preserves column
// positions byte for byte.
func scanLiveText(raw string, offset, lineIndex int) (string, string, tripleState) {
	var code strings.Builder
	var triple tripleState
	comment := ""
	i := offset
	for i < len(raw) {
		ch := raw[i]
		switch {
		case ch == '#':
			comment = strings.TrimSpace(raw[i+1:])
			i = len(raw)
		case ch == '\'' || ch == '"':
			isRaw := isRawPrefix(raw, i)
			if i+2 < len(raw) && raw[i+1] == ch && raw[i+2] == ch {
				closeAt := findTripleClose(raw[i+3:], ch, isRaw)
				if closeAt < 0 {
					triple = tripleState{open: true, delimiter: ch, raw: isRaw, startLine: lineIndex}
					code.WriteString(`"""`)
					code.WriteString(strings.Repeat(" ", len(raw)-i-3))
					i = len(raw)
					break
				}
				code.WriteString(`"""`)
				code.WriteString(strings.Repeat(" ", closeAt))
				code.WriteString(`"""`)
				i += closeAt + 6
				break
			}
			closeAt := findSingleClose(raw, i+1, ch, isRaw)
			code.WriteByte('"')
			if closeAt < 0 {
				code.WriteString(strings.Repeat(" ", len(raw)-i-1))
				i = len(raw)
				break
			}
			code.WriteString(strings.Repeat(" ", closeAt-i-1))
			code.WriteByte('"')
			i = closeAt + 1
		default:
			code.WriteByte(ch)
			i++
		}
	}
	return code.String(), comment, triple
}

func findTripleClose(text string, delimiter byte, raw bool) int {
	for i := 0; i+2 < len(text); i++ {
		if text[i] == '\\' && !raw {
			i++
			continue
		}
		if text[i] == delimiter && text[i+1] == delimiter && text[i+2] == delimiter {
			return i
		}
	}
	return -1
}

func findSingleClose(text string, start int, delimiter byte, raw bool) int {
	for i := start; i < len(text); i++ {
		if text[i] == '\\' && !raw {
			i++
			continue
		}
		if text[i] == delimiter {
			return i
		}
	}
	return -1
}

func isRawPrefix(text string, quoteAt int) bool {
	i := quoteAt - 1
	seen := 0
	for i >= 0 && seen < 2 {
		switch text[i] {
		case 'r', 'R':
			return !isIdentifierChar(prevChar(text, i))
		case 'b', 'B', 'u', 'U', 'f', 'F':
			i--
			seen++
		default:
			return false
		}
	}
	return false
}

func prevChar(text string, i int) byte {
	if i <= 0 {
		return 0
	}
	return text[i-1]
}

func isIdentifierChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// markTypeCheckingBlocks flags lines inside `if TYPE_CHECKING:` bodies.
// A body extends until the first non-blank live line at or below the
// header's indentation.
func markTypeCheckingBlocks(lines []SourceLine) {
	for i := range lines {
		if lines[i].InString {
			continue
		}
		match := typeCheckingPattern.FindStringSubmatch(lines[i].Code)
		if match == nil {
			continue
		}
		headerIndent := len(match[1])
		for j := i + 1; j < len(lines); j++ {
			if lines[j].InString || strings.TrimSpace(lines[j].Code) == "" {
				lines[j].TypeChecking = true
				continue
			}
			if indentWidth(lines[j].Code) <= headerIndent {
				break
			}
			lines[j].TypeChecking = true
		}
	}
}

func indentWidth(code string) int {
	for i := 0; i < len(code); i++ {
		if code[i] != ' ' && code[i] != '\t' {
			return i
		}
	}
	return len(code)
}

// Indent returns the leading whitespace of a line's live code.
func Indent(code string) string {
	return code[:indentWidth(code)]
}
