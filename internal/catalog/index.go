package catalog

import (
	"sync/atomic"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/util"
)

// Index holds the read-only lookup maps for one catalog snapshot. Built in a
// single pass and never mutated afterwards; a refresh builds a new Index and
// swaps it in through a Holder.
type Index struct {
	ByNormalizedName map[string]internal.CatalogEntry
	ByAcronym        map[string]internal.CatalogEntry
}

// BuildIndex indexes the full snapshot. No value filtering happens here —
// thresholds apply at match time, so one index serves every query. When two
// entries normalize to the same key, the later one wins.
func BuildIndex(entries []internal.CatalogEntry) *Index {
	idx := &Index{
		ByNormalizedName: make(map[string]internal.CatalogEntry, len(entries)),
		ByAcronym:        map[string]internal.CatalogEntry{},
	}

	for _, e := range entries {
		idx.ByNormalizedName[util.NormalizeName(e.Name)] = e
		if acr := util.NormalizeAcronym(e.Acronym); acr != "" {
			idx.ByAcronym[acr] = e
		}
	}

	return idx
}

func (idx *Index) Len() int {
	return len(idx.ByNormalizedName)
}

// Holder shares one Index between the refresh loop and the matchers. Readers
// see either the old snapshot or the new one, never a half-built index.
type Holder struct {
	ptr atomic.Pointer[Index]
}

func NewHolder(idx *Index) *Holder {
	h := &Holder{}
	if idx != nil {
		h.ptr.Store(idx)
	}
	return h
}

func (h *Holder) Current() *Index {
	if idx := h.ptr.Load(); idx != nil {
		return idx
	}
	return BuildIndex(nil)
}

func (h *Holder) Swap(idx *Index) {
	if idx != nil {
		h.ptr.Store(idx)
	}
}
