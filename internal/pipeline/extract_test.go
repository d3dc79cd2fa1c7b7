package pipeline

import (
	"testing"
)

func TestParseDetectedMentionsObjects(t *testing.T) {
	raw := `[{"name": "Domino Crown", "value": 24000000}, {"name": "Valk", "value": "400,000"}]`
	mentions := ParseDetectedMentions(raw)
	if len(mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %+v", mentions)
	}
	if mentions[0].RawName != "Domino Crown" || mentions[0].RawValue != 24000000 {
		t.Fatalf("unexpected first mention: %+v", mentions[0])
	}
	if mentions[1].RawName != "Valk" || mentions[1].RawValue != 400000 {
		t.Fatalf("unexpected second mention: %+v", mentions[1])
	}
}

func TestParseDetectedMentionsCodeFence(t *testing.T) {
	raw := "```json\n[{\"name\": \"Goldrow\", \"value\": \"316\"}]\n```"
	mentions := ParseDetectedMentions(raw)
	if len(mentions) != 1 || mentions[0].RawName != "Goldrow" || mentions[0].RawValue != 316 {
		t.Fatalf("unexpected mentions: %+v", mentions)
	}
}

func TestParseDetectedMentionsBareStrings(t *testing.T) {
	mentions := ParseDetectedMentions(`["Dominus Empyreus", "  ", "Valk"]`)
	if len(mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %+v", mentions)
	}
	if mentions[0].RawName != "Dominus Empyreus" || mentions[1].RawName != "Valk" {
		t.Fatalf("unexpected mentions: %+v", mentions)
	}
}

func TestParseDetectedMentionsGarbage(t *testing.T) {
	for _, raw := range []string{"", "no items visible", "{}", `{"name": "x"}`} {
		if mentions := ParseDetectedMentions(raw); len(mentions) != 0 {
			t.Fatalf("expected no mentions for %q, got %+v", raw, mentions)
		}
	}
}

func TestParseDisplayedValue(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{float64(5000), 5000},
		{float64(-3), 0},
		{"4,200,000", 4200000},
		{"R$ 316", 316},
		{"unknown", 0},
		{nil, 0},
		{true, 0},
	}
	for _, tc := range cases {
		if got := parseDisplayedValue(tc.in); got != tc.want {
			t.Fatalf("parseDisplayedValue(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
