package pipeline

import (
	"sort"
	"strings"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/catalog"
	"github.com/froosterton/reddih/internal/util"
)

// acronymBlacklist holds chat slang that collides with real item acronyms.
// These tokens never match, regardless of case.
var acronymBlacklist = map[string]struct{}{
	"mm":  {}, // middleman
	"dc":  {}, // disconnect
	"w":   {}, // win
	"l":   {}, // loss
	"f":   {}, // fair
	"op":  {}, // original poster / overpowered
	"pc":  {}, // price check
	"nvm": {}, // nevermind
	"pm":  {}, // private message
	"dm":  {}, // direct message
	"rn":  {}, // right now
	"gg":  {}, // good game
	"bb":  {}, // baby / bye bye
	"gl":  {}, // good luck
	"ty":  {}, // thank you
	"np":  {}, // no problem
	"lf":  {}, // looking for
	"ft":  {}, // for trade
	"nft": {}, // not for trade
	"id":  {},
	"da":  {},
	"pf":  {},
	"fb":  {},
	"sc":  {},
	"rt":  {},
	"ep":  {},
	"hb":  {},
	"sb":  {},
	"cs":  {},
	"ci":  {},
	"aa":  {},
	"bt":  {},
	"dh":  {},
	"rs":  {}, // runescape
	"gw":  {}, // guild wars
	"ac":  {}, // animal crossing
	"iv":  {},
	"es":  {},
	"ss":  {}, // screenshot
	"bm":  {}, // bad manners
	"se":  {},
	"tv":  {},
}

// Scan finds every catalog item mentioned in the text by exact name or
// acronym and buckets the hits by the value threshold: resolved value >=
// threshold goes to above, 0 < value < threshold goes to below, zero-value
// items are dropped. Both buckets come back sorted by value descending.
func Scan(text string, idx *catalog.Index, threshold int64) (above, below []internal.MatchResult) {
	textNorm := util.NormalizeName(text)
	seen := map[int64]struct{}{}

	// Name pass: only canonical names with 2+ words; single words hit far
	// too many common-word false positives.
	for norm, entry := range idx.ByNormalizedName {
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		if util.WordCount(norm) < 2 {
			continue
		}
		if strings.Contains(textNorm, norm) {
			above, below = bucket(above, below, entry, entry.Name, threshold)
			seen[entry.ID] = struct{}{}
		}
	}

	// Acronym pass against whitespace tokens. Short acronyms (2-3 chars)
	// must appear uppercase in the original text; longer ones match
	// case-insensitively.
	originalWords := tokenSet(text)
	lowerWords := tokenSet(strings.ToLower(text))
	for acr, entry := range idx.ByAcronym {
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		if len(acr) < 2 {
			continue
		}
		if _, blacklisted := acronymBlacklist[acr]; blacklisted {
			continue
		}
		if len(acr) <= 3 {
			if _, ok := originalWords[strings.ToUpper(acr)]; !ok {
				continue
			}
		}
		if _, ok := lowerWords[acr]; ok {
			above, below = bucket(above, below, entry, acr, threshold)
			seen[entry.ID] = struct{}{}
		}
	}

	sort.SliceStable(above, func(i, j int) bool { return above[i].Value > above[j].Value })
	sort.SliceStable(below, func(i, j int) bool { return below[i].Value > below[j].Value })
	return above, below
}

func bucket(above, below []internal.MatchResult, entry internal.CatalogEntry, detectedAs string, threshold int64) ([]internal.MatchResult, []internal.MatchResult) {
	value := entry.ResolvedValue()
	if value <= 0 {
		return above, below
	}
	match := *toMatchResult(entry, detectedAs)
	if value >= threshold {
		return append(above, match), below
	}
	return above, append(below, match)
}

func tokenSet(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(text) {
		out[w] = struct{}{}
	}
	return out
}
