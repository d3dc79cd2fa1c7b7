package internal

type MentionSource string

const (
	SourceImageCaption MentionSource = "image_caption"
	SourceTextScan     MentionSource = "text_scan"
	SourceClassifier   MentionSource = "classifier"
)

// CatalogEntry is one tradable limited item from the Rolimons catalog.
// OverrideValue is the curated value; -1 means no override, in which case
// ReferenceValue (the recent average price) stands in.
type CatalogEntry struct {
	ID             int64
	Name           string
	Acronym        string
	ReferenceValue int64
	OverrideValue  int64
}

func (e CatalogEntry) ResolvedValue() int64 {
	if e.OverrideValue != -1 {
		return e.OverrideValue
	}
	return e.ReferenceValue
}

// DetectedMention is an item name pulled out of a source blob (vision output,
// classifier reply) before it has been matched against the catalog. RawValue
// is whatever value was displayed alongside the name, 0 if none.
type DetectedMention struct {
	RawName  string
	RawValue int64
}

// MatchResult is a mention resolved to a catalog entry. DetectedAs keeps the
// original freeform string even when it differs from the canonical name.
type MatchResult struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Acronym    string `json:"acronym"`
	Value      int64  `json:"value"`
	DetectedAs string `json:"detectedAs"`
}

// ScreeningDecision is the terminal output of the lead screener. Source says
// which pass produced the matched items: the direct text scan or the
// classifier cross-check.
type ScreeningDecision struct {
	IsLead  bool          `json:"isLead"`
	Reason  string        `json:"reason"`
	Matched []MatchResult `json:"matched"`
	Source  MentionSource `json:"source,omitempty"`
}

type PostRow struct {
	ID         int
	Subreddit  string
	PostID     string
	Title      string
	Author     string
	Flair      string
	Permalink  string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedPost struct {
	Subreddit  string
	PostID     string
	Title      string
	Author     string
	Flair      string
	Permalink  string
	ReceivedAt string
	Raw        []byte
}

type DecisionExportRow struct {
	PostDBID    int
	Subreddit   string
	PostID      string
	Title       string
	Permalink   string
	Outcome     string
	Reason      string
	Source      string
	ItemID      *int64
	ItemName    *string
	ItemAcronym *string
	ItemValue   *int64
	DetectedAs  *string
}
