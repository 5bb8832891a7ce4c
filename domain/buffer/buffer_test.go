package buffer

import "testing"

func TestPushPopHead(t *testing.T) {
	b := New(16, 32, 16)
	tail, err := b.GrowTail(4)
	if err != nil {
		t.Fatalf("GrowTail: %v", err)
	}
	copy(tail, []byte{1, 2, 3, 4})

	hdr, err := b.PushHead(4)
	if err != nil {
		t.Fatalf("PushHead: %v", err)
	}
	copy(hdr, []byte{9, 9, 9, 9})

	if got, want := b.Bytes(), []byte{9, 9, 9, 9, 1, 2, 3, 4}; string(got) != string(want) {
		t.Fatalf("Bytes() = %v, want %v", got, want)
	}

	if err := b.PopHead(4); err != nil {
		t.Fatalf("PopHead: %v", err)
	}
	if got, want := b.Bytes(), []byte{1, 2, 3, 4}; string(got) != string(want) {
		t.Fatalf("Bytes() after PopHead = %v, want %v", got, want)
	}
}

func TestPushHeadOverflow(t *testing.T) {
	b := New(2, 8, 2)
	if _, err := b.PushHead(3); err == nil {
		t.Fatal("expected error pushing past head room")
	}
}

func TestGrowShrinkTail(t *testing.T) {
	b := New(0, 4, 4)
	if _, err := b.GrowTail(9); err == nil {
		t.Fatal("expected error growing past tail room")
	}
	region, err := b.GrowTail(2)
	if err != nil {
		t.Fatalf("GrowTail: %v", err)
	}
	if len(region) != 2 {
		t.Fatalf("region len = %d, want 2", len(region))
	}
	if err := b.ShrinkTail(1); err != nil {
		t.Fatalf("ShrinkTail: %v", err)
	}
	if b.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", b.Len())
	}
}

func TestReset(t *testing.T) {
	b := FromSlice([]byte{1, 2, 3})
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", b.Len())
	}
	if b.TailRoom() != 3 {
		t.Fatalf("TailRoom() after Reset = %d, want 3", b.TailRoom())
	}
}
