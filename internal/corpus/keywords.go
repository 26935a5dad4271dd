package corpus

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// stopWords are dropped before counting term frequency.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "at": true, "by": true,
	"for": true, "with": true, "from": true, "as": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true, "it": true,
	"its": true, "this": true, "that": true, "these": true, "those": true, "which": true,
	"who": true, "whom": true, "what": true, "when": true, "where": true, "why": true,
	"how": true, "not": true, "no": true, "can": true, "could": true, "will": true,
	"would": true, "should": true, "may": true, "might": true, "must": true, "has": true,
	"have": true, "had": true, "do": true, "does": true, "did": true, "than": true,
	"then": true, "there": true, "their": true, "they": true, "them": true, "he": true,
	"she": true, "his": true, "her": true, "we": true, "our": true, "you": true,
	"your": true, "i": true, "also": true, "such": true, "into": true, "each": true,
	"other": true, "more": true, "most": true, "some": true, "any": true, "all": true,
	"only": true, "very": true, "so": true, "if": true, "about": true, "between": true,
	"both": true, "after": true, "before": true, "over": true, "under": true, "during": true,
}

// minKeywordLen filters out short tokens that are rarely meaningful topics.
const minKeywordLen = 3

// Tokenize splits text into case-folded word tokens.
func Tokenize(text string) []string {
	folder := cases.Fold()
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f == "" {
			continue
		}
		out = append(out, folder.String(f))
	}
	return out
}

// ContentWords returns the distinct non-stop-word tokens of text.
func ContentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		if IsContentWord(tok) {
			words[tok] = true
		}
	}
	return words
}

// Keywords returns up to n keywords ranked by term frequency. Ties break on
// first occurrence so the result is deterministic.
func Keywords(text string, n int) []string {
	type term struct {
		word  string
		count int
		first int
	}
	terms := make(map[string]*term)
	for i, tok := range Tokenize(text) {
		if !IsContentWord(tok) {
			continue
		}
		t, ok := terms[tok]
		if !ok {
			t = &term{word: tok, first: i}
			terms[tok] = t
		}
		t.count++
	}

	ranked := make([]*term, 0, len(terms))
	for _, t := range terms {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]string, n)
	for i := range n {
		out[i] = ranked[i].word
	}
	return out
}

// Topic is the chunk's topic label: its top keyword, or "general".
func Topic(keywords []string) string {
	if len(keywords) == 0 {
		return "general"
	}
	return keywords[0]
}

// IsContentWord reports whether a folded token carries topical meaning.
func IsContentWord(tok string) bool {
	if len([]rune(tok)) < minKeywordLen || stopWords[tok] {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
