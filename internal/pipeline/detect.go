package pipeline

import "strings"

// excludeKeywords mark posts that are never worth processing: scam reports,
// memes, giveaways, rants.
var excludeKeywords = []string{
	"scammer", "scam alert", "scam", "scammed",
	"beware", "warning", "banned", "report",
	"giveaway", "giving away", "free",
	"meme", "funny", "lol", "lmao",
	"rant", "vent",
}

// leadKeywords suggest a text-only post might be from a potential seller or
// returning player. Posts that pass this pre-filter still go through the
// strict classifier screen.
var leadKeywords = []string{
	"haven't played", "havent played",
	"haven't been on", "havent been on",
	"old account", "my old", "years ago",
	"came back", "got back", "just got back", "returning",
	"is this rare", "are these rare", "is this worth",
	"are my items worth", "what are my items",
	"how do i sell", "where do i sell", "where can i sell",
	"sell my items", "sell my account", "sell limiteds",
	"worth any money", "worth anything",
	"items worth", "account worth",
	"sell limited", "sell expensive",
	"how much are my", "how much is my",
	"cash out", "cashout",
	"quit roblox", "quitting roblox", "leaving roblox",
}

// tradeFlairs indicate trade/sell intent on their own (exact match,
// lowercased).
var tradeFlairs = map[string]struct{}{
	"trade ad":     {},
	"trade ads":    {},
	"trading help": {},
	"w/l":          {},
	"wfl":          {},
}

type DetectResult struct {
	Eligible bool
	Reason   string
}

// IsExcluded reports whether the post is obvious noise.
func IsExcluded(title, flair string) bool {
	titleLower := strings.ToLower(strings.TrimSpace(title))
	flairLower := strings.ToLower(strings.TrimSpace(flair))

	for _, kw := range excludeKeywords {
		if strings.Contains(titleLower, kw) || strings.Contains(flairLower, kw) {
			return true
		}
	}
	return false
}

// DetectLeadCandidate decides whether a post deserves processing. Image
// posts always go through (the vision prescreen is the real filter); text
// posts need a seller keyword or a trade flair.
func DetectLeadCandidate(title, body, flair string, hasImages bool) DetectResult {
	if IsExcluded(title, flair) {
		return DetectResult{Eligible: false, Reason: "excluded keyword"}
	}

	if hasImages {
		return DetectResult{Eligible: true, Reason: "has images"}
	}

	combined := strings.ToLower(strings.TrimSpace(title)) + " " + strings.ToLower(strings.TrimSpace(body))
	for _, kw := range leadKeywords {
		if strings.Contains(combined, kw) {
			return DetectResult{Eligible: true, Reason: "lead keyword: " + kw}
		}
	}

	if _, ok := tradeFlairs[strings.ToLower(strings.TrimSpace(flair))]; ok {
		return DetectResult{Eligible: true, Reason: "trade flair"}
	}

	return DetectResult{Eligible: false, Reason: "text-only, no lead keywords"}
}
