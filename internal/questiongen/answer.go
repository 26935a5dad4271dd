package questiongen

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseChoice turns learner input into an option index. It accepts a
// letter ("b"), a 1-based number ("2") or the option text itself.
func ParseChoice(input string, item *Item) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("empty answer")
	}
	if i, ok := letterIndex(input); ok {
		return i, nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > OptionCount {
			return 0, fmt.Errorf("choice %d is outside 1..%d", n, OptionCount)
		}
		return n - 1, nil
	}
	key := foldKey(input)
	for i, o := range item.Options {
		if foldKey(o) == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%q does not match any option", input)
}

// OptionLabel returns the display letter for an option index.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}
