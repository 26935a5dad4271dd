package questiongen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/abhisek/studyloop/internal/llm"
)

// rawItem is the backend response before validation. Every field is
// optional here; missing pieces are reported by parse or the validators.
type rawItem struct {
	Stem     string `json:"stem"`
	Question string `json:"question"`

	Options []string `json:"options"`
	Choices []string `json:"choices"`

	CorrectIndex  *int            `json:"correct_index"`
	CorrectOption json.RawMessage `json:"correct_option"`
	Answer        json.RawMessage `json:"answer"`

	Rationale   string `json:"rationale"`
	Explanation string `json:"explanation"`
	Topic       string `json:"topic"`
}

// parsed is a decoded response whose correct answer has been resolved.
type parsed struct {
	Stem         string
	Options      []string
	CorrectIndex int
	Rationale    string
	Topic        string
}

var letterPrefix = regexp.MustCompile(`^\(?([A-Da-d])[\).:]\s+`)

// parseResponse decodes backend content into a parsed item. Content is
// either a JSON object or a JSON string holding free text with an object
// somewhere inside it.
func parseResponse(content json.RawMessage) (*parsed, error) {
	body := []byte(content)
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		body = []byte(text)
	}

	obj, err := llm.ExtractJSON(string(body))
	if err != nil {
		return nil, &ParseError{Reason: "no JSON object", Err: err}
	}

	var raw rawItem
	if err := json.Unmarshal(obj, &raw); err != nil {
		return nil, &ParseError{Reason: "malformed item", Err: err}
	}

	p := &parsed{
		Stem:      strings.TrimSpace(firstNonEmpty(raw.Stem, raw.Question)),
		Options:   raw.Options,
		Rationale: strings.TrimSpace(firstNonEmpty(raw.Rationale, raw.Explanation)),
		Topic:     strings.TrimSpace(raw.Topic),
	}
	if len(p.Options) == 0 {
		p.Options = raw.Choices
	}
	p.Options = stripLetterPrefixes(p.Options)

	idx, err := resolveCorrect(raw, p.Options)
	if err != nil {
		return nil, err
	}
	p.CorrectIndex = idx
	return p, nil
}

// resolveCorrect finds the correct option from correct_index, or from the
// correct_option / answer aliases. Every marker present must agree.
func resolveCorrect(raw rawItem, options []string) (int, error) {
	found := -1
	agree := func(i int) error {
		if found >= 0 && found != i {
			return &ParseError{Reason: fmt.Sprintf("conflicting correct-answer markers %d and %d", found, i)}
		}
		found = i
		return nil
	}

	if raw.CorrectIndex != nil {
		if err := agree(*raw.CorrectIndex); err != nil {
			return 0, err
		}
	}
	for _, alias := range []json.RawMessage{raw.CorrectOption, raw.Answer} {
		if len(alias) == 0 || string(alias) == "null" {
			continue
		}
		i, err := markerIndex(alias, options)
		if err != nil {
			return 0, err
		}
		if err := agree(i); err != nil {
			return 0, err
		}
	}

	if found < 0 {
		return 0, &ParseError{Reason: "missing correct-answer marker"}
	}
	return found, nil
}

// markerIndex interprets an alias marker: the exact text of one option, a
// letter A-D, or a zero-based number. Option text wins over the other
// readings; a number that names a different option by text is ambiguous.
func markerIndex(marker json.RawMessage, options []string) (int, error) {
	var n int
	if err := json.Unmarshal(marker, &n); err == nil {
		return numericMarker(n, strconv.Itoa(n), options)
	}
	var s string
	if err := json.Unmarshal(marker, &s); err != nil {
		return 0, &ParseError{Reason: "unreadable correct-answer marker", Err: err}
	}
	s = strings.TrimSpace(s)
	match, err := optionByText(s, options)
	if err != nil {
		return 0, err
	}
	if match >= 0 {
		return match, nil
	}
	if i, ok := letterIndex(s); ok {
		return i, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return numericMarker(n, s, options)
	}
	return 0, &ParseError{Reason: fmt.Sprintf("answer %q matches no option", s)}
}

// numericMarker reads n as an option index unless its text names another
// option.
func numericMarker(n int, text string, options []string) (int, error) {
	match, err := optionByText(text, options)
	if err != nil {
		return 0, err
	}
	if match >= 0 && match != n {
		return 0, &ParseError{Reason: fmt.Sprintf("answer %s is both an index and the text of option %d", text, match)}
	}
	if n < 0 || n >= len(options) {
		return 0, &ParseError{Reason: fmt.Sprintf("answer index %d out of range", n)}
	}
	return n, nil
}

// optionByText returns the option whose folded text equals s, or -1.
func optionByText(s string, options []string) (int, error) {
	match := -1
	for i, o := range options {
		if foldKey(o) == foldKey(s) {
			if match >= 0 {
				return 0, &ParseError{Reason: fmt.Sprintf("answer %q matches several options", s)}
			}
			match = i
		}
	}
	return match, nil
}

// letterIndex maps "B", "b", "(B)" or "B)" to 1.
func letterIndex(s string) (int, bool) {
	s = strings.Trim(s, "()[]. :")
	if len(s) != 1 {
		return 0, false
	}
	c := s[0] | 0x20
	if c < 'a' || c >= 'a'+OptionCount {
		return 0, false
	}
	return int(c - 'a'), true
}

// stripLetterPrefixes removes "A) " style labels, but only when every option
// carries them in order, so options that merely start with a letter are
// left alone.
func stripLetterPrefixes(options []string) []string {
	out := make([]string, len(options))
	for i, o := range options {
		m := letterPrefix.FindStringSubmatch(o)
		if m == nil || int((m[1][0]|0x20)-'a') != i {
			copy(out, options)
			for j := range out {
				out[j] = strings.TrimSpace(out[j])
			}
			return out
		}
		out[i] = strings.TrimSpace(o[len(m[0]):])
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
