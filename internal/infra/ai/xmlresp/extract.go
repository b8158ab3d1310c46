// Package xmlresp turns free-text model completions into validated, typed records.
// A completion is expected to contain one XML block rooted at a known element; prose
// around the block is ignored.
package xmlresp

import (
	"strings"

	"github.com/bryanwahyu/carbon-validator/internal/domain/ai"
)

// ExtractSpan returns the substring of raw from the first opening tag of root up to and
// including its matching closing tag. Nested elements with the same name are balanced.
func ExtractSpan(raw, root string) (string, error) {
	start := findOpen(raw, root, 0)
	if start < 0 {
		return "", ai.Malformed("opening tag <"+root+"> not found", nil)
	}
	openEnd := strings.IndexByte(raw[start:], '>')
	if openEnd < 0 {
		return "", ai.Malformed("opening tag <"+root+"> not terminated", nil)
	}
	openEnd += start + 1
	if raw[openEnd-2] == '/' {
		// <root/> has no content but is still a complete element
		return raw[start:openEnd], nil
	}

	depth := 1
	pos := openEnd
	for depth > 0 {
		nextOpen := findOpen(raw, root, pos)
		nextClose, closeEnd := findClose(raw, root, pos)
		if nextClose < 0 {
			return "", ai.Malformed("closing tag </"+root+"> not found", nil)
		}
		if nextOpen >= 0 && nextOpen < nextClose {
			end := strings.IndexByte(raw[nextOpen:], '>')
			if end < 0 {
				return "", ai.Malformed("nested <"+root+"> not terminated", nil)
			}
			end += nextOpen + 1
			if raw[end-2] != '/' {
				depth++
			}
			pos = end
			continue
		}
		depth--
		pos = closeEnd
	}
	return raw[start:pos], nil
}

// findOpen locates "<root" followed by '>', '/' or whitespace, at or after from.
func findOpen(raw, root string, from int) int {
	needle := "<" + root
	for from <= len(raw) {
		i := strings.Index(raw[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		next := i + len(needle)
		if next < len(raw) && isNameBoundary(raw[next]) {
			return i
		}
		from = i + 1
	}
	return -1
}

// findClose locates "</root" + optional whitespace + ">" and returns its start and end.
func findClose(raw, root string, from int) (int, int) {
	needle := "</" + root
	for from <= len(raw) {
		i := strings.Index(raw[from:], needle)
		if i < 0 {
			return -1, -1
		}
		i += from
		j := i + len(needle)
		for j < len(raw) && isSpace(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == '>' {
			return i, j + 1
		}
		from = i + 1
	}
	return -1, -1
}

func isNameBoundary(c byte) bool { return c == '>' || c == '/' || isSpace(c) }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
