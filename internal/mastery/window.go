package mastery

// Window is a fixed-capacity record of recent outcomes, most recent last.
// Pushing into a full window evicts the oldest outcome.
type Window struct {
	Size     int    `json:"size"`
	Outcomes []bool `json:"outcomes"`
}

// NewWindow creates an empty window of the given capacity.
func NewWindow(size int) Window {
	return Window{Size: size, Outcomes: make([]bool, 0, size)}
}

// Push records an outcome.
func (w *Window) Push(correct bool) {
	w.Outcomes = append(w.Outcomes, correct)
	if w.Size > 0 && len(w.Outcomes) > w.Size {
		w.Outcomes = w.Outcomes[len(w.Outcomes)-w.Size:]
	}
}

// Resize changes the capacity, keeping the most recent outcomes.
func (w *Window) Resize(size int) {
	w.Size = size
	if size > 0 && len(w.Outcomes) > size {
		w.Outcomes = append([]bool(nil), w.Outcomes[len(w.Outcomes)-size:]...)
	}
}

// Len returns the number of recorded outcomes.
func (w Window) Len() int { return len(w.Outcomes) }

// Accuracy returns the share of correct outcomes, 0 when empty.
func (w Window) Accuracy() float64 {
	if len(w.Outcomes) == 0 {
		return 0
	}
	n := 0
	for _, ok := range w.Outcomes {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(w.Outcomes))
}

// TrailingRun returns the length of the run of identical outcomes at the
// end of the window and its value.
func (w Window) TrailingRun() (int, bool) {
	if len(w.Outcomes) == 0 {
		return 0, false
	}
	last := w.Outcomes[len(w.Outcomes)-1]
	n := 0
	for i := len(w.Outcomes) - 1; i >= 0 && w.Outcomes[i] == last; i-- {
		n++
	}
	return n, last
}
