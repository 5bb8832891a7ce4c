package method

import "testing"

func TestReplayWindowAcceptsIncreasing(t *testing.T) {
	var w ReplayWindow
	for _, n := range []uint64{1, 2, 3, 10} {
		if err := w.Check(n); err != nil {
			t.Fatalf("Check(%d): %v", n, err)
		}
		if reordered := w.Accept(n); reordered {
			t.Fatalf("Accept(%d) reported reordered for strictly increasing nonce", n)
		}
	}
	if w.Max() != 10 {
		t.Fatalf("Max() = %d, want 10", w.Max())
	}
}

func TestReplayWindowRejectsDuplicate(t *testing.T) {
	var w ReplayWindow
	w.Accept(5)
	if err := w.Check(5); err != ErrReplayed {
		t.Fatalf("Check(5) after Accept(5) = %v, want ErrReplayed", err)
	}
}

func TestReplayWindowReordered(t *testing.T) {
	var w ReplayWindow
	for _, n := range []uint64{1, 3, 5, 7} {
		w.Accept(n)
	}
	if err := w.Check(2); err != nil {
		t.Fatalf("Check(2): %v", err)
	}
	if reordered := w.Accept(2); !reordered {
		t.Fatal("expected nonce 2 to be marked reordered")
	}
	if err := w.Check(2); err != ErrReplayed {
		t.Fatal("nonce 2 must not be accepted twice")
	}
}

func TestReplayWindowDropsOld(t *testing.T) {
	var w ReplayWindow
	w.Accept(1000)
	if err := w.Check(10); err != ErrReplayed {
		t.Fatalf("Check(10) with max=1000 = %v, want ErrReplayed", err)
	}
}
