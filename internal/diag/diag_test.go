package diag

import (
	"sync"
	"testing"

	"shaderpipe/internal/source"
)

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		IncCycle:      "INC1001",
		RefInvalid:    "REF4001",
		IOWriteError:  "IO6002",
		CmpEmptyStage: "CMP5003",
		UnknownCode:   "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %s, want %s", code, got, want)
		}
	}
}

func TestBagLimitSortAndDedup(t *testing.T) {
	bag := NewBag(4)
	var wg sync.WaitGroup
	for i := range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bag.Add(NewError(RefInvalid, source.Span{File: source.FileID(i % 2)}, "dup"))
		}()
	}
	wg.Wait()
	if bag.Len() != 4 || bag.Dropped() != 2 {
		t.Fatalf("Len = %d, Dropped = %d", bag.Len(), bag.Dropped())
	}
	bag.Dedup()
	if bag.Len() != 2 {
		t.Fatalf("after Dedup Len = %d, want 2", bag.Len())
	}
	bag.Sort()
	items := bag.Items()
	if items[0].Primary.File != 0 || items[1].Primary.File != 1 {
		t.Errorf("not sorted by file: %+v", items)
	}
}

func TestDedupIgnoresNotes(t *testing.T) {
	bag := NewBag(10)
	d := NewWarning(TolVariantFailed, source.Span{}, "HLSL fragment: Compatibility issue: x")
	bag.Add(d)
	bag.Add(d)
	bag.Add(d.WithNote(source.Span{}, "other note"))
	bag.Dedup()
	if bag.Len() != 1 {
		t.Errorf("expected one diagnostic, got %d", bag.Len())
	}
	if !bag.HasWarnings() || bag.HasErrors() {
		t.Error("severity checks are wrong")
	}
	if len(d.Notes) != 0 {
		t.Error("WithNote modified the receiver")
	}
}
