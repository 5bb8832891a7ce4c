package tundevice

import "testing"

func TestTruncateToMTU(t *testing.T) {
	p := make([]byte, 1600)
	got, truncated := TruncateToMTU(p, 1500)
	if !truncated || len(got) != 1500 {
		t.Fatalf("expected truncation to 1500, got len=%d truncated=%v", len(got), truncated)
	}

	p2 := make([]byte, 1000)
	got2, truncated2 := TruncateToMTU(p2, 1500)
	if truncated2 || len(got2) != 1000 {
		t.Fatalf("expected no truncation, got len=%d truncated=%v", len(got2), truncated2)
	}
}
