package questiongen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxStemRunes      = 600
	maxOptionRunes    = 240
	maxRationaleRunes = 1200
)

// StructuralValidator checks that the stem and options are present, the
// correct index is in range and nothing exceeds its length limit.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(item *Item, _ Input) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(item.Stem) == "" {
		return fail("stem is empty")
	}
	if n := utf8.RuneCountInString(item.Stem); n > maxStemRunes {
		return fail("stem has %d characters, limit is %d", n, maxStemRunes)
	}
	for i, o := range item.Options {
		if strings.TrimSpace(o) == "" {
			return fail("option %d is empty", i+1)
		}
		if n := utf8.RuneCountInString(o); n > maxOptionRunes {
			return fail("option %d has %d characters, limit is %d", i+1, n, maxOptionRunes)
		}
	}
	if item.CorrectIndex < 0 || item.CorrectIndex >= OptionCount {
		return fail("correct_index %d is outside 0..%d", item.CorrectIndex, OptionCount-1)
	}
	if n := utf8.RuneCountInString(item.Rationale); n > maxRationaleRunes {
		return fail("rationale has %d characters, limit is %d", n, maxRationaleRunes)
	}
	return nil
}
