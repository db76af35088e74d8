package arena

import (
	"strings"
	"testing"
)

func TestWriteAndReadBack(t *testing.T) {
	a := New(4, 64)
	defer a.Release()

	if !a.WriteCandidate(0, "今日", "は", "きょう", 3) {
		t.Fatal("WriteCandidate(0) rejected")
	}
	if got := a.SlotText(0); got != "今日" {
		t.Errorf("text = %q", got)
	}
	if got := a.SlotRemainder(0); got != "は" {
		t.Errorf("remainder = %q", got)
	}
	if got := a.SlotReading(0); got != "きょう" {
		t.Errorf("reading = %q", got)
	}
	if got := a.SlotConsumed(0); got != 3 {
		t.Errorf("consumed = %d", got)
	}
}

func TestSlotReuseOverwrites(t *testing.T) {
	a := New(2, 64)
	defer a.Release()

	a.WriteCandidate(0, "ながいながいことば", "", "", 9)
	a.WriteCandidate(0, "短", "", "", 1)
	if got := a.SlotText(0); got != "短" {
		t.Errorf("after rewrite: %q", got)
	}
	if got := a.SlotConsumed(0); got != 1 {
		t.Errorf("after rewrite consumed = %d", got)
	}
}

func TestTruncationNeverOverruns(t *testing.T) {
	const capBytes = 16
	a := New(1, capBytes)
	defer a.Release()

	// 3 bytes per rune: the 16-byte buffer fits five runes at most.
	long := strings.Repeat("あ", 100)
	a.WriteCandidate(0, long, long, long, 300)

	got := a.SlotText(0)
	if len(got) > capBytes-1 {
		t.Fatalf("stored %d bytes, capacity %d", len(got), capBytes)
	}
	if got != strings.Repeat("あ", 5) {
		t.Errorf("truncation result %q, want rune-aligned prefix", got)
	}
}

func TestWriteCandidateOutOfRange(t *testing.T) {
	a := New(2, 32)
	defer a.Release()

	if a.WriteCandidate(-1, "x", "", "", 0) {
		t.Error("negative index accepted")
	}
	if a.WriteCandidate(2, "x", "", "", 0) {
		t.Error("index past capacity accepted")
	}
}

func TestSnapshotClampsCount(t *testing.T) {
	a := New(3, 32)
	defer a.Release()

	ptr, n := a.Snapshot(10)
	if ptr == nil || n != 3 {
		t.Errorf("Snapshot(10) = %v, %d; want capacity clamp 3", ptr, n)
	}
	_, n = a.Snapshot(-1)
	if n != 0 {
		t.Errorf("Snapshot(-1) count = %d", n)
	}
	_, n = a.Snapshot(2)
	if n != 2 {
		t.Errorf("Snapshot(2) count = %d", n)
	}
}

func TestSnapshotAddressStableAcrossWrites(t *testing.T) {
	a := New(2, 32)
	defer a.Release()

	p1, _ := a.Snapshot(1)
	a.WriteCandidate(0, "一", "", "", 1)
	a.WriteCandidate(1, "二", "", "", 1)
	p2, _ := a.Snapshot(2)
	if p1 != p2 {
		t.Error("slot array address changed across writes")
	}
}

func TestStringBuffer(t *testing.T) {
	b := NewStringBuffer()
	defer b.Release()

	p1 := b.Set("かな")
	if got := b.Get(); got != "かな" {
		t.Errorf("Get = %q", got)
	}
	p2 := b.Set("べつのないよう")
	if got := b.Get(); got != "べつのないよう" {
		t.Errorf("Get after rewrite = %q", got)
	}
	if p1 != p2 {
		t.Error("transient buffer address changed across writes")
	}

	long := strings.Repeat("か", TransientCap)
	b.Set(long)
	if got := b.Get(); len(got) > TransientCap-1 {
		t.Errorf("stored %d bytes, capacity %d", len(got), TransientCap)
	}
}
