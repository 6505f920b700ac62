// SPDX-License-Identifier: MPL-2.0

package extract

import (
	"bytes"
)

const pluginsKeyword = "plugins"

// scanState is the lexical context of the block scanner.
type scanState int

const (
	stateCode scanState = iota
	stateLineComment
	stateBlockComment
	stateString
	stateRawString
	stateChar
)

// PluginsBlock returns src with everything outside the first top-level
// plugins block blanked out. Newlines are kept, so line numbers in the
// result match the script. The second result is false when src has no
// complete plugins block.
func PluginsBlock(src []byte) ([]byte, bool) {
	start, end, ok := findPluginsBlock(src)
	if !ok {
		return blank(src), false
	}
	out := blank(src[:start])
	out = append(out, src[start:end]...)
	out = append(out, blank(src[end:])...)
	return out, true
}

// blank keeps only the newlines of b.
func blank(b []byte) []byte {
	return bytes.Repeat([]byte{'\n'}, bytes.Count(b, []byte{'\n'}))
}

// findPluginsBlock returns the byte range of the first "plugins { ... }"
// at brace depth zero. Braces inside comments, string literals and
// character literals are ignored.
func findPluginsBlock(src []byte) (start, end int, ok bool) {
	state := stateCode
	depth := 0
	start = -1

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case stateLineComment:
			if c == '\n' {
				state = stateCode
			}
			continue
		case stateBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = stateCode
				i++
			}
			continue
		case stateString:
			switch c {
			case '\\':
				i++
			case '"', '\n':
				state = stateCode
			}
			continue
		case stateChar:
			switch c {
			case '\\':
				i++
			case '\'', '\n':
				state = stateCode
			}
			continue
		case stateRawString:
			if bytes.HasPrefix(src[i:], []byte(`"""`)) {
				state = stateCode
				i += 2
			}
			continue
		}

		switch {
		case bytes.HasPrefix(src[i:], []byte("//")):
			state = stateLineComment
			i++
		case bytes.HasPrefix(src[i:], []byte("/*")):
			state = stateBlockComment
			i++
		case bytes.HasPrefix(src[i:], []byte(`"""`)):
			state = stateRawString
			i += 2
		case c == '"':
			state = stateString
		case c == '\'':
			state = stateChar
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 && start >= 0 {
				return start, i + 1, true
			}
		case start < 0 && depth == 0 && isKeywordAt(src, i):
			j := i + len(pluginsKeyword)
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			if j < len(src) && src[j] == '{' {
				start = i
				depth = 1
				i = j
			}
		}
	}
	return 0, 0, false
}

// isKeywordAt reports whether the plugins keyword starts at i as a whole word.
func isKeywordAt(src []byte, i int) bool {
	if !bytes.HasPrefix(src[i:], []byte(pluginsKeyword)) {
		return false
	}
	if i > 0 && (isIdent(src[i-1]) || src[i-1] == '.') {
		return false
	}
	j := i + len(pluginsKeyword)
	return j >= len(src) || !isIdent(src[j])
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
