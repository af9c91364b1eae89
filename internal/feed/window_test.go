package feed

import "testing"

func TestWindow_LocalDataset(t *testing.T) {
	w := NewWindow([]int{1, 2, 3, 4, 5, 6, 7}, 7, 3)
	if w.Count() != 3 || w.Total() != 7 {
		t.Fatalf("Count(), Total() = %d, %d; want 3, 7", w.Count(), w.Total())
	}
	if !w.HasMore() {
		t.Error("HasMore() = false with hidden rows")
	}

	if n := w.Store(3, []int{4, 5, 6}, 3, 7); n != 3 {
		t.Errorf("Store() = %d, want 3", n)
	}
	if n := w.Store(6, []int{7}, 3, 7); n != 1 {
		t.Errorf("Store() = %d, want 1", n)
	}
	if w.HasMore() {
		t.Error("HasMore() = true with everything displayed")
	}
}

func TestWindow_RemoteUnknownTotal(t *testing.T) {
	w := NewWindow[int](nil, -1, 0)
	if !w.HasMore() {
		t.Fatal("HasMore() = false on an empty window of unknown size")
	}
	w.Store(0, []int{1, 2, 3}, 3, -1)
	if !w.HasMore() {
		t.Error("HasMore() = false after a full page")
	}
	w.Store(3, []int{4}, 3, -1)
	if w.HasMore() {
		t.Error("HasMore() = true after a short page")
	}
	if w.Count() != 4 || w.Total() != 4 {
		t.Errorf("Count(), Total() = %d, %d; want 4, 4", w.Count(), w.Total())
	}
}

func TestWindow_ShortPageOverridesTotal(t *testing.T) {
	w := NewWindow[int](nil, -1, 0)
	w.Store(0, []int{1, 2, 3}, 10, 100)
	if w.Count() != 3 || w.Total() != 3 {
		t.Errorf("Count(), Total() = %d, %d; want 3, 3", w.Count(), w.Total())
	}
	if w.HasMore() {
		t.Error("HasMore() = true after a short page")
	}
}

func TestWindow_CountClampedToTotal(t *testing.T) {
	w := NewWindow([]int{1, 2}, 2, 10)
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}

	w = NewWindow[int](nil, -1, 0)
	// Server claims more rows than it can serve
	w.Store(0, []int{1, 2}, 2, 10)
	w.Store(2, nil, 2, 10)
	if w.Total() != 2 || w.HasMore() {
		t.Errorf("Total(), HasMore() = %d, %v; want 2, false", w.Total(), w.HasMore())
	}
}

func TestWindow_StoreRejectsGaps(t *testing.T) {
	w := NewWindow[int](nil, -1, 0)
	if n := w.Store(5, []int{1}, 1, -1); n != 0 {
		t.Errorf("Store() past the end = %d, want 0", n)
	}
	if w.Known() != 0 {
		t.Errorf("Known() = %d, want 0", w.Known())
	}
}

func TestWindow_Replace(t *testing.T) {
	w := NewWindow([]int{1, 2, 3, 4}, 4, 2)
	if n := w.Replace(0, []int{10, 20, 30}); n != 2 {
		t.Errorf("Replace() = %d, want 2", n)
	}
	if v, _ := w.At(1); v != 20 {
		t.Errorf("At(1) = %d, want 20", v)
	}
	if _, ok := w.At(2); ok {
		t.Error("At(2) returned a hidden row")
	}
	if w.Count() != 2 {
		t.Errorf("Count() = %d, want 2", w.Count())
	}
}
