package pipeline

import "testing"

func TestIsExcluded(t *testing.T) {
	cases := []struct {
		title string
		flair string
		want  bool
	}{
		{"I got scammed out of my valk", "", true},
		{"Beware of this trader", "", true},
		{"funny trade lol", "", true},
		{"Selling my limiteds", "Giveaway", true},
		{"Selling my limiteds", "Trade Ad", false},
		{"quitting roblox, selling everything", "", false},
	}
	for _, tc := range cases {
		if got := IsExcluded(tc.title, tc.flair); got != tc.want {
			t.Fatalf("IsExcluded(%q, %q) = %v, want %v", tc.title, tc.flair, got, tc.want)
		}
	}
}

func TestDetectLeadCandidateImagesAlwaysEligible(t *testing.T) {
	res := DetectLeadCandidate("check out my inventory", "", "", true)
	if !res.Eligible {
		t.Fatalf("expected eligible, got %+v", res)
	}

	// Excluded posts stay excluded even with images.
	res = DetectLeadCandidate("scammer took my items", "", "", true)
	if res.Eligible {
		t.Fatalf("expected excluded, got %+v", res)
	}
}

func TestDetectLeadCandidateTextKeywords(t *testing.T) {
	res := DetectLeadCandidate("haven't played in 6 years", "are my items worth anything?", "", false)
	if !res.Eligible {
		t.Fatalf("expected eligible, got %+v", res)
	}

	res = DetectLeadCandidate("what should I trade for", "", "", false)
	if res.Eligible {
		t.Fatalf("expected not eligible, got %+v", res)
	}
}

func TestDetectLeadCandidateTradeFlair(t *testing.T) {
	res := DetectLeadCandidate("offers?", "", "Trade Ad", false)
	if !res.Eligible {
		t.Fatalf("expected eligible via flair, got %+v", res)
	}
}
