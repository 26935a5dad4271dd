package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// unit is an atomic span of text: a sentence, or a paragraph fragment with
// no sentence terminator. start and end are byte offsets into the source.
type unit struct {
	start, end int
	text       string
}

func (u unit) size() int { return utf8.RuneCountInString(u.text) }

// splitUnits breaks text into sentence units in reading order. Paragraph
// breaks (blank lines) always end a unit. Every non-space rune of text
// falls inside exactly one unit.
func splitUnits(text string) []unit {
	var units []unit
	for _, p := range paragraphSpans(text) {
		units = append(units, sentenceUnits(text, p[0], p[1])...)
	}
	return units
}

// paragraphSpans returns [start,end) spans separated by blank lines.
func paragraphSpans(text string) [][2]int {
	var spans [][2]int
	start := 0
	i := 0
	for i < len(text) {
		if text[i] != '\n' {
			i++
			continue
		}
		// Look for a second newline separated only by horizontal space.
		j := i + 1
		for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
			j++
		}
		if j < len(text) && text[j] == '\n' {
			spans = append(spans, [2]int{start, i})
			for j < len(text) && isSpaceByte(text[j]) {
				j++
			}
			start = j
			i = j
			continue
		}
		i++
	}
	spans = append(spans, [2]int{start, len(text)})
	return spans
}

func sentenceUnits(text string, from, to int) []unit {
	var units []unit
	start := from
	i := from
	for i < to {
		r, w := utf8.DecodeRuneInString(text[i:])
		i += w
		if !isTerminator(r) {
			continue
		}
		// Absorb runs like "?!" or "..." and closing quotes or brackets.
		for i < to {
			r2, w2 := utf8.DecodeRuneInString(text[i:])
			if !isTerminator(r2) && !isCloser(r2) {
				break
			}
			i += w2
		}
		if i < to && !isWideTerminator(r) {
			next, _ := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(next) {
				continue // "3.14", "e.g.x"
			}
			if lowercaseFollows(text[i:to]) {
				continue // likely an abbreviation: "approx. five"
			}
		}
		if u, ok := makeUnit(text, start, i); ok {
			units = append(units, u)
		}
		start = i
	}
	if u, ok := makeUnit(text, start, to); ok {
		units = append(units, u)
	}
	return units
}

// makeUnit trims surrounding whitespace from [start,end) and reports false
// when nothing remains.
func makeUnit(text string, start, end int) (unit, bool) {
	raw := text[start:end]
	trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
	start += len(raw) - len(trimmed)
	trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
	if trimmed == "" {
		return unit{}, false
	}
	return unit{start: start, end: start + len(trimmed), text: trimmed}, true
}

func lowercaseFollows(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.IsLower(r)
	}
	return false
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

// isWideTerminator matches CJK sentence ends, which need no trailing space.
func isWideTerminator(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '}', '”', '’', '»':
		return true
	}
	return false
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
