package feed

// Window holds the known rows of a dataset and how many of the leading rows
// are displayed. Rows may be known before they are displayed (an in-memory
// dataset) or arrive page by page (a remote dataset).
type Window[T any] struct {
	rows  []T
	count int
	total int
}

// NewWindow creates a window over rows with the first count rows displayed.
// A negative total means the dataset length is unknown.
func NewWindow[T any](rows []T, total, count int) *Window[T] {
	w := &Window[T]{}
	w.Reset(rows, total, count)
	return w
}

// Reset replaces the dataset wholesale
func (w *Window[T]) Reset(rows []T, total, count int) {
	w.rows = rows
	w.total = total
	if w.total >= 0 && w.total < len(rows) {
		w.total = len(rows)
	}
	w.count = 0
	w.setCount(count)
}

// Visible returns the displayed prefix
func (w *Window[T]) Visible() []T {
	return w.rows[:w.count]
}

// Count returns the number of displayed rows
func (w *Window[T]) Count() int {
	return w.count
}

// Total returns the dataset length, or -1 if unknown
func (w *Window[T]) Total() int {
	if w.total < 0 {
		return -1
	}
	return w.total
}

// Known returns the number of rows held, displayed or not
func (w *Window[T]) Known() int {
	return len(w.rows)
}

// HasMore reports whether rows beyond the displayed prefix exist or may exist
func (w *Window[T]) HasMore() bool {
	if w.count < len(w.rows) {
		return true
	}
	return w.total < 0 || w.count < w.total
}

// At returns the displayed row at i
func (w *Window[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= w.count {
		return zero, false
	}
	return w.rows[i], true
}

// Store places items at offset, extending the known rows as needed, then
// displays everything up to the end of the stored range. It returns how many
// rows became newly visible. A page shorter than requested fixes the dataset
// length at the end of the stored range.
func (w *Window[T]) Store(offset int, items []T, requested, total int) int {
	if offset < 0 || offset > len(w.rows) {
		return 0
	}
	if total >= 0 {
		w.total = total
	}

	for i, item := range items {
		pos := offset + i
		if pos < len(w.rows) {
			w.rows[pos] = item
		} else {
			w.rows = append(w.rows, item)
		}
	}
	if w.total >= 0 && len(w.rows) > w.total {
		w.total = len(w.rows)
	}
	// a short page ends the dataset, whatever length the source claimed
	if len(items) < requested {
		w.total = max(offset+len(items), len(w.rows))
	}

	before := w.count
	w.setCount(offset + len(items))
	return w.count - before
}

// Replace overwrites already displayed rows starting at offset without
// changing the display count. Items beyond the displayed prefix are ignored.
func (w *Window[T]) Replace(offset int, items []T) int {
	n := 0
	for i, item := range items {
		pos := offset + i
		if pos < 0 || pos >= w.count {
			break
		}
		w.rows[pos] = item
		n++
	}
	return n
}

// setCount raises the display count to n, never lowering it and never
// exceeding the known rows or the dataset length.
func (w *Window[T]) setCount(n int) {
	if n > len(w.rows) {
		n = len(w.rows)
	}
	if w.total >= 0 && n > w.total {
		n = w.total
	}
	if n < 0 {
		n = 0
	}
	if n > w.count {
		w.count = n
	}
}
