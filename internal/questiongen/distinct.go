package questiongen

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// foldKey normalizes text for equality checks: NFKC, Unicode case folding,
// collapsed whitespace and no trailing punctuation. "Ｃｅｌｌ wall." and
// "cell  wall" share a key.
func foldKey(s string) string {
	s = folder.String(norm.NFKC.String(s))
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRightFunc(s, unicode.IsPunct)
}

// DistinctnessValidator rejects items whose options repeat each other or
// the stem once normalized.
type DistinctnessValidator struct{}

func (v *DistinctnessValidator) Name() string { return "distinctness" }

func (v *DistinctnessValidator) Validate(item *Item, _ Input) *ValidationError {
	stem := foldKey(item.Stem)
	seen := make(map[string]int, OptionCount)
	for i, o := range item.Options {
		key := foldKey(o)
		if key == stem {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %d repeats the stem", i+1),
			}
		}
		if j, dup := seen[key]; dup {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("options %d and %d are the same (%q)", j+1, i+1, o),
			}
		}
		seen[key] = i
	}
	return nil
}
