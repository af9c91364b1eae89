package feed

import "testing"

func TestMonitor_FirstObservationIsDown(t *testing.T) {
	m := NewMonitor(1, 5)
	if got := m.Observe(40); got != Down {
		t.Errorf("Observe() first = %v, want down", got)
	}
	m.Reset()
	if got := m.Observe(0); got != Down {
		t.Errorf("Observe() after Reset = %v, want down", got)
	}
}

func TestMonitor_Monotonic(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    Direction
	}{
		{"increasing", []int{0, 3, 10, 11, 40, 100}, Down},
		{"decreasing", []int{100, 80, 79, 50, 2, 0}, Up},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(1, 1)
			m.Observe(tt.offsets[0])
			for _, off := range tt.offsets[1:] {
				if got := m.Observe(off); got != tt.want {
					t.Errorf("Observe(%d) = %v, want %v", off, got, tt.want)
				}
			}
		})
	}
}

func TestMonitor_EpsilonAccumulates(t *testing.T) {
	m := NewMonitor(1, 5)
	m.Observe(100)
	m.MarkLoaded()

	for _, off := range []int{102, 104} {
		if got := m.Observe(off); got != None {
			t.Errorf("Observe(%d) = %v, want none", off, got)
		}
	}
	if m.Offset() != 100 {
		t.Errorf("Offset() = %d, want 100 (sub-epsilon moves not recorded)", m.Offset())
	}
	if got := m.Observe(105); got != Down {
		t.Errorf("Observe(105) = %v, want down", got)
	}
	if got := m.Observe(99); got != Up {
		t.Errorf("Observe(99) = %v, want up", got)
	}
}

func TestMonitor_EpsilonBeforeLoad(t *testing.T) {
	m := NewMonitor(1, 5)
	m.Observe(0)
	if got := m.Observe(1); got != Down {
		t.Errorf("Observe(1) before load = %v, want down", got)
	}
}

func TestNewMonitor_ClampsEpsilon(t *testing.T) {
	m := NewMonitor(0, -3)
	m.Observe(0)
	if got := m.Observe(0); got != None {
		t.Errorf("Observe(same) = %v, want none", got)
	}
	if got := m.Observe(1); got != Down {
		t.Errorf("Observe(1) = %v, want down", got)
	}
}
