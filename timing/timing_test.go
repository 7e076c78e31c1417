package timing

import "testing"

// fakeSource is a deterministic tick source: each call to Ticks
// advances by exactly one tick, with no real-time dependency.
type fakeSource struct{ n uint32 }

func (f *fakeSource) Ticks() uint32 { f.n++; return f.n }

func TestElapsed(t *testing.T) {
	src := &fakeSource{}
	start := src.Ticks()
	if Elapsed(src, start, 5) {
		t.Fatal("Elapsed reported true before enough ticks passed")
	}
	for i := 0; i < 5; i++ {
		src.Ticks()
	}
	if !Elapsed(src, start, 5) {
		t.Fatal("Elapsed reported false after enough ticks passed")
	}
}

func TestSpinAdvancesBySpecifiedTicks(t *testing.T) {
	src := &fakeSource{}
	before := src.n
	Spin(src, 10)
	if src.n-before < 10 {
		t.Fatalf("Spin returned after %d ticks, want at least 10", src.n-before)
	}
}

func TestGuardReturnsTrueWhenFnSucceeds(t *testing.T) {
	src := &fakeSource{}
	calls := 0
	ok := Guard(src, 1000, func() bool {
		calls++
		return calls == 3
	})
	if !ok {
		t.Fatal("Guard returned false though fn eventually succeeded")
	}
	if calls != 3 {
		t.Fatalf("fn called %d times, want 3", calls)
	}
}

func TestGuardTimesOut(t *testing.T) {
	src := &fakeSource{}
	ok := Guard(src, 3, func() bool { return false })
	if ok {
		t.Fatal("Guard returned true though fn never succeeded")
	}
}
