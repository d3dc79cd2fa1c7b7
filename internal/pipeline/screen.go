package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/catalog"
	"github.com/froosterton/reddih/internal/util"
)

// Classifier is the external text-post screening collaborator. It returns
// the raw reply text; parsing and cross-checking happen here, so a sloppy
// reply can never abort a decision.
type Classifier interface {
	ScreenPost(ctx context.Context, title, body string) (string, error)
}

// Screener decides whether a text post is a seller lead.
//
// Pass 1 scans title+body for exact catalog names/acronyms: a hit at or above
// the threshold is an automatic lead, a hit below it suppresses the post.
// Pass 2 runs only when the scan finds nothing: the classifier's verdict is
// cross-checked against the catalog before being trusted.
type Screener struct {
	threshold  int64
	classifier Classifier
}

func NewScreener(threshold int64, classifier Classifier) *Screener {
	return &Screener{threshold: threshold, classifier: classifier}
}

func (s *Screener) Screen(ctx context.Context, title, body string, idx *catalog.Index) internal.ScreeningDecision {
	combined := strings.TrimSpace(title + " " + body)

	above, below := Scan(combined, idx, s.threshold)

	if len(above) > 0 {
		return internal.ScreeningDecision{
			IsLead:  true,
			Reason:  "Mentions Rolimons-listed item(s): " + joinNames(above),
			Matched: above,
			Source:  internal.SourceTextScan,
		}
	}

	if len(below) > 0 {
		return internal.ScreeningDecision{
			IsLead: false,
			Reason: fmt.Sprintf("Item(s) found but below R$ %s threshold: %s", util.FormatValue(s.threshold), joinNamesWithValues(below)),
		}
	}

	if s.classifier == nil {
		return internal.ScreeningDecision{IsLead: false, Reason: "no catalog mentions and no classifier configured"}
	}

	raw, err := s.classifier.ScreenPost(ctx, title, body)
	if err != nil {
		// Classifier faults degrade to a negative verdict (the caller owns
		// timeout/retry policy).
		return internal.ScreeningDecision{IsLead: false, Reason: ""}
	}

	reply := parseClassifierReply(raw)
	if !reply.Verdict {
		return internal.ScreeningDecision{IsLead: false, Reason: reply.Reason}
	}

	names := reply.ItemNames()
	if len(names) == 0 {
		// Verdict yes with no named items: returning-player posts and the
		// like. Trust the classifier.
		return internal.ScreeningDecision{IsLead: true, Reason: reply.Reason}
	}

	var matchedAbove, matchedBelow []internal.MatchResult
	resolvedAny := false
	for _, name := range names {
		match := MatchSingle(name, idx)
		if match == nil {
			continue
		}
		resolvedAny = true
		// Strictly greater than: an item priced exactly at the threshold is
		// not enough to confirm a classifier verdict.
		if match.Value > s.threshold {
			matchedAbove = append(matchedAbove, *match)
		} else {
			matchedBelow = append(matchedBelow, *match)
		}
	}

	if resolvedAny && len(matchedAbove) == 0 {
		return internal.ScreeningDecision{
			IsLead: false,
			Reason: fmt.Sprintf("Item(s) identified by classifier but at or below R$ %s threshold: %s", util.FormatValue(s.threshold), joinNamesWithValues(matchedBelow)),
		}
	}

	if len(matchedAbove) > 0 {
		sort.SliceStable(matchedAbove, func(i, j int) bool { return matchedAbove[i].Value > matchedAbove[j].Value })
		return internal.ScreeningDecision{
			IsLead:  true,
			Reason:  fmt.Sprintf("%s (Confirmed item(s): %s)", reply.Reason, joinNames(matchedAbove)),
			Matched: matchedAbove,
			Source:  internal.SourceClassifier,
		}
	}

	// None of the named items exist in the catalog; fall back to trusting
	// the verdict, same as the no-names case.
	return internal.ScreeningDecision{IsLead: true, Reason: reply.Reason}
}

// classifierReply is the parsed three-line VERDICT/REASON/ITEMS contract.
// Missing or malformed lines default to the negative/empty value.
type classifierReply struct {
	Verdict  bool
	Reason   string
	ItemsRaw string
}

func parseClassifierReply(raw string) classifierReply {
	var reply classifierReply
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "verdict:"):
			reply.Verdict = strings.Contains(lower[len("verdict:"):], "yes")
		case strings.HasPrefix(lower, "reason:"):
			reply.Reason = strings.TrimSpace(trimmed[len("reason:"):])
		case strings.HasPrefix(lower, "items:"):
			reply.ItemsRaw = strings.TrimSpace(trimmed[len("items:"):])
		}
	}
	return reply
}

func (r classifierReply) ItemNames() []string {
	if r.ItemsRaw == "" || strings.EqualFold(r.ItemsRaw, "none") {
		return nil
	}
	parts := strings.Split(r.ItemsRaw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func joinNames(matches []internal.MatchResult) string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}

func joinNamesWithValues(matches []internal.MatchResult) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s (R$ %s)", m.Name, util.FormatValue(m.Value)))
	}
	return strings.Join(parts, ", ")
}
