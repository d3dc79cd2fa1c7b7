package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/config"
	"github.com/froosterton/reddih/internal/util"
)

const (
	colorHit     = 0xFF4500
	colorLead    = 0x5865F2
	colorSkip    = 0x808080
	colorStartup = 0x00CC00
)

// Service is the alerting surface used by the processing pipeline. The
// default implementation posts Discord webhook embeds and degrades to a noop
// when no webhook URL is configured.
type Service interface {
	NotifyStartup(ctx context.Context, subreddits []string, intervalSec int) error
	NotifyItemHit(ctx context.Context, item internal.MatchResult, postTitle, postURL string) error
	NotifyTextLead(ctx context.Context, postTitle, postURL, body, reason string, matched []internal.MatchResult) error
	NotifySkip(ctx context.Context, sourceURL, reason string) error
}

func NewService(cfg config.Config) Service {
	webhook := strings.TrimSpace(cfg.DiscordWebhookURL)
	if webhook == "" {
		return noopService{}
	}
	return &discordService{
		webhookURL: webhook,
		client:     &http.Client{Timeout: 10 * time.Second},
		thumbs:     NewThumbnailClient(),
	}
}

type noopService struct{}

func (noopService) NotifyStartup(context.Context, []string, int) error { return nil }
func (noopService) NotifyItemHit(context.Context, internal.MatchResult, string, string) error {
	return nil
}
func (noopService) NotifyTextLead(context.Context, string, string, string, string, []internal.MatchResult) error {
	return nil
}
func (noopService) NotifySkip(context.Context, string, string) error { return nil }

type discordService struct {
	webhookURL string
	client     *http.Client
	thumbs     *ThumbnailClient
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedThumbnail struct {
	URL string `json:"url"`
}

type embed struct {
	Title       string          `json:"title"`
	Color       int             `json:"color"`
	Description string          `json:"description,omitempty"`
	Fields      []embedField    `json:"fields,omitempty"`
	Thumbnail   *embedThumbnail `json:"thumbnail,omitempty"`
}

func (s *discordService) NotifyStartup(ctx context.Context, subreddits []string, intervalSec int) error {
	subs := make([]string, 0, len(subreddits))
	for _, sub := range subreddits {
		subs = append(subs, "**r/"+sub+"**")
	}
	return s.send(ctx, embed{
		Title:       "Monitor Started",
		Color:       colorStartup,
		Description: fmt.Sprintf("Now watching %s for new posts.\nPolling every **%ds**.", strings.Join(subs, ", "), intervalSec),
	})
}

func (s *discordService) NotifyItemHit(ctx context.Context, item internal.MatchResult, postTitle, postURL string) error {
	e := embed{
		Title: "Possible Hit on Reddit",
		Color: colorHit,
		Fields: []embedField{
			{Name: "Item Name", Value: item.Name, Inline: true},
			{Name: "Value (Rolimons)", Value: "R$ " + util.FormatValue(item.Value), Inline: true},
		},
	}

	if item.Acronym != "" {
		e.Fields = append(e.Fields, embedField{Name: "Acronym", Value: item.Acronym, Inline: true})
	}
	if item.DetectedAs != "" && item.DetectedAs != item.Name {
		e.Fields = append(e.Fields, embedField{Name: "Detected As", Value: item.DetectedAs, Inline: true})
	}
	if thumb := s.thumbs.ItemThumbnail(ctx, item.ID); thumb != "" {
		e.Thumbnail = &embedThumbnail{URL: thumb}
	}
	if postTitle != "" && postURL != "" {
		e.Fields = append(e.Fields, embedField{Name: "Reddit Post", Value: fmt.Sprintf("[%s](%s)", postTitle, postURL)})
	}

	return s.send(ctx, e)
}

func (s *discordService) NotifyTextLead(ctx context.Context, postTitle, postURL, body, reason string, matched []internal.MatchResult) error {
	preview := body
	if len(preview) > 400 {
		preview = preview[:400] + "..."
	}
	if preview == "" {
		preview = "(no text)"
	}

	e := embed{
		Title: "Potential Seller / Lead on Reddit",
		Color: colorLead,
		Fields: []embedField{
			{Name: "Post", Value: fmt.Sprintf("[%s](%s)", postTitle, postURL)},
			{Name: "Preview", Value: preview},
			{Name: "Why", Value: reason},
		},
	}

	if len(matched) > 0 {
		best := matched[0]
		e.Fields = append(e.Fields[:1], append([]embedField{{
			Name:   "Top Item Mentioned",
			Value:  fmt.Sprintf("%s — R$ %s", best.Name, util.FormatValue(best.Value)),
			Inline: true,
		}}, e.Fields[1:]...)...)
		if thumb := s.thumbs.ItemThumbnail(ctx, best.ID); thumb != "" {
			e.Thumbnail = &embedThumbnail{URL: thumb}
		}
	}

	return s.send(ctx, e)
}

func (s *discordService) NotifySkip(ctx context.Context, sourceURL, reason string) error {
	return s.send(ctx, embed{
		Title: "Post Skipped",
		Color: colorSkip,
		Fields: []embedField{
			{Name: "Reason", Value: reason},
			{Name: "Source", Value: fmt.Sprintf("[View](%s)", sourceURL)},
		},
	})
}

func (s *discordService) send(ctx context.Context, e embed) error {
	payload, err := json.Marshal(map[string]any{"embeds": []embed{e}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook error: status=%d", resp.StatusCode)
	}
	return nil
}
