package pipeline

import (
	"sort"
	"strings"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/catalog"
	"github.com/froosterton/reddih/internal/util"
)

// MatchSingle resolves one freeform name against the catalog. Tier order,
// first hit wins:
//
//  1. exact normalized name
//  2. exact acronym (lowercased, trimmed)
//  3. prefix match for truncated names ("Dominus Formidulos..." from a
//     cut-off label) — only for candidates with 2+ words and 8+ characters,
//     and the longest matching canonical name wins
//
// Returns nil when nothing matches; that is the steady state, not an error.
func MatchSingle(detectedName string, idx *catalog.Index) *internal.MatchResult {
	detLower := strings.ToLower(strings.TrimSpace(detectedName))
	detNorm := util.NormalizeName(detectedName)

	if entry, ok := idx.ByNormalizedName[detNorm]; ok {
		return toMatchResult(entry, detectedName)
	}

	if entry, ok := idx.ByAcronym[detLower]; ok {
		return toMatchResult(entry, detectedName)
	}

	if util.WordCount(detNorm) >= 2 && len(detNorm) >= 8 {
		var best *internal.CatalogEntry
		bestLen := 0
		for norm, entry := range idx.ByNormalizedName {
			if strings.HasPrefix(norm, detNorm) && len(norm) > bestLen {
				e := entry
				best = &e
				bestLen = len(norm)
			}
		}
		if best != nil {
			return toMatchResult(*best, detectedName)
		}
	}

	return nil
}

// MatchBatch resolves detected mentions in input order, dropping duplicates
// by item id and anything below the threshold, then sorts by resolved value
// descending. Ties keep input order.
func MatchBatch(mentions []internal.DetectedMention, idx *catalog.Index, threshold int64) []internal.MatchResult {
	results := make([]internal.MatchResult, 0, len(mentions))
	seen := map[int64]struct{}{}

	for _, det := range mentions {
		match := MatchSingle(det.RawName, idx)
		if match == nil {
			continue
		}
		if _, ok := seen[match.ID]; ok {
			continue
		}
		seen[match.ID] = struct{}{}
		if match.Value < threshold {
			continue
		}
		results = append(results, *match)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Value > results[j].Value })
	return results
}

func toMatchResult(entry internal.CatalogEntry, detectedAs string) *internal.MatchResult {
	return &internal.MatchResult{
		ID:         entry.ID,
		Name:       entry.Name,
		Acronym:    entry.Acronym,
		Value:      entry.ResolvedValue(),
		DetectedAs: detectedAs,
	}
}
