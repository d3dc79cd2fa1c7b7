package catalog

import (
	"testing"

	"github.com/froosterton/reddih/internal"
)

func TestBuildIndex(t *testing.T) {
	entries := []internal.CatalogEntry{
		{ID: 1, Name: "Domino Crown", Acronym: "DC ", ReferenceValue: 20000000, OverrideValue: 24000000},
		{ID: 2, Name: "Goldrow", Acronym: "", ReferenceValue: 316, OverrideValue: -1},
	}

	idx := BuildIndex(entries)

	if idx.Len() != 2 {
		t.Fatalf("len=%d", idx.Len())
	}

	dc, ok := idx.ByNormalizedName["domino crown"]
	if !ok {
		t.Fatal("domino crown not indexed")
	}
	if dc.ResolvedValue() != 24000000 {
		t.Fatalf("override value not applied: %d", dc.ResolvedValue())
	}

	gr, ok := idx.ByNormalizedName["goldrow"]
	if !ok {
		t.Fatal("goldrow not indexed")
	}
	if gr.ResolvedValue() != 316 {
		t.Fatalf("reference fallback not applied: %d", gr.ResolvedValue())
	}

	if _, ok := idx.ByAcronym["dc"]; !ok {
		t.Fatal("acronym not trimmed/lowercased into index")
	}
	if len(idx.ByAcronym) != 1 {
		t.Fatalf("empty acronym should be omitted, got %d entries", len(idx.ByAcronym))
	}
}

func TestBuildIndexNoValueFiltering(t *testing.T) {
	entries := []internal.CatalogEntry{
		{ID: 1, Name: "Worthless Hat", ReferenceValue: 0, OverrideValue: -1},
	}
	idx := BuildIndex(entries)
	if _, ok := idx.ByNormalizedName["worthless hat"]; !ok {
		t.Fatal("zero-value entries must still be indexed")
	}
}

func TestHolderSwap(t *testing.T) {
	first := BuildIndex([]internal.CatalogEntry{{ID: 1, Name: "Domino Crown"}})
	second := BuildIndex([]internal.CatalogEntry{{ID: 2, Name: "Sparkle Time Fedora"}})

	h := NewHolder(first)
	if h.Current() != first {
		t.Fatal("holder did not return initial index")
	}

	h.Swap(second)
	if h.Current() != second {
		t.Fatal("holder did not swap")
	}

	// nil swap keeps the old snapshot
	h.Swap(nil)
	if h.Current() != second {
		t.Fatal("nil swap must keep the current index")
	}
}

func TestHolderEmptyDefault(t *testing.T) {
	h := NewHolder(nil)
	if h.Current() == nil {
		t.Fatal("empty holder must still serve a usable index")
	}
	if h.Current().Len() != 0 {
		t.Fatal("default index should be empty")
	}
}
