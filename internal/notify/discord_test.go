package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/config"
)

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

func captureWebhook(t *testing.T) (*httptest.Server, *webhookPayload) {
	t.Helper()
	var captured webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("bad webhook payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func thumbServer(t *testing.T, imageURL string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"imageUrl": imageURL}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testService(webhookURL, thumbBaseURL string) *discordService {
	return &discordService{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		thumbs:     &ThumbnailClient{baseURL: thumbBaseURL, client: &http.Client{Timeout: 5 * time.Second}},
	}
}

func TestNewServiceNoopWithoutWebhook(t *testing.T) {
	svc := NewService(config.Config{})
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyItemHit(context.Background(), internal.MatchResult{}, "", ""); err != nil {
		t.Fatalf("noop must never fail: %v", err)
	}
}

func TestNotifyItemHit(t *testing.T) {
	webhook, captured := captureWebhook(t)
	thumbs := thumbServer(t, "https://tr.rbxcdn.com/abc/420/420/Hat/Png")
	svc := testService(webhook.URL, thumbs.URL)

	item := internal.MatchResult{
		ID:         1029025,
		Name:       "Domino Crown",
		Acronym:    "",
		Value:      24000000,
		DetectedAs: "domino crown",
	}
	if err := svc.NotifyItemHit(context.Background(), item, "selling my hats", "https://reddit.com/r/RobloxTrading/x"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(captured.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %+v", captured)
	}
	e := captured.Embeds[0]
	if e.Title != "Possible Hit on Reddit" || e.Color != colorHit {
		t.Fatalf("unexpected embed: %+v", e)
	}
	if e.Fields[0].Value != "Domino Crown" {
		t.Fatalf("unexpected item field: %+v", e.Fields)
	}
	if e.Fields[1].Value != "R$ 24,000,000" {
		t.Fatalf("unexpected value field: %+v", e.Fields)
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != "https://tr.rbxcdn.com/abc/420/420/Hat/Png" {
		t.Fatalf("expected thumbnail, got %+v", e.Thumbnail)
	}
}

func TestNotifyTextLeadTruncatesPreview(t *testing.T) {
	webhook, captured := captureWebhook(t)
	svc := testService(webhook.URL, "http://127.0.0.1:0")

	long := ""
	for i := 0; i < 50; i++ {
		long += "selling everything "
	}
	if err := svc.NotifyTextLead(context.Background(), "quitting", "https://reddit.com/x", long, "lead keyword: cash out", nil); err != nil {
		t.Fatalf("notify: %v", err)
	}

	e := captured.Embeds[0]
	if e.Color != colorLead {
		t.Fatalf("unexpected color: %d", e.Color)
	}
	var preview string
	for _, f := range e.Fields {
		if f.Name == "Preview" {
			preview = f.Value
		}
	}
	if len(preview) != 403 {
		t.Fatalf("expected truncated preview, got %d chars", len(preview))
	}
}

func TestNotifyTextLeadTopItemField(t *testing.T) {
	webhook, captured := captureWebhook(t)
	thumbs := thumbServer(t, "https://tr.rbxcdn.com/top/420/420/Hat/Png")
	svc := testService(webhook.URL, thumbs.URL)

	matched := []internal.MatchResult{{ID: 1, Name: "Dominus Empyreus", Value: 50000000}}
	if err := svc.NotifyTextLead(context.Background(), "old account", "https://reddit.com/y", "body", "mentions item", matched); err != nil {
		t.Fatalf("notify: %v", err)
	}

	e := captured.Embeds[0]
	if len(e.Fields) != 4 {
		t.Fatalf("expected 4 fields, got %+v", e.Fields)
	}
	if e.Fields[1].Name != "Top Item Mentioned" {
		t.Fatalf("expected top item inserted second, got %+v", e.Fields)
	}
	if e.Fields[1].Value != "Dominus Empyreus — R$ 50,000,000" {
		t.Fatalf("unexpected top item value: %q", e.Fields[1].Value)
	}
}

func TestNotifyWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	svc := testService(srv.URL, "http://127.0.0.1:0")

	if err := svc.NotifySkip(context.Background(), "https://reddit.com/z", "excluded"); err == nil {
		t.Fatal("expected error on non-2xx webhook response")
	}
}
