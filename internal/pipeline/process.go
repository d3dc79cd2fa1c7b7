package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/catalog"
	"github.com/froosterton/reddih/internal/config"
	"github.com/froosterton/reddih/internal/notify"
	"github.com/froosterton/reddih/internal/storage"
	"github.com/froosterton/reddih/internal/util"
)

// VisionClient is the external image-understanding collaborator.
type VisionClient interface {
	PrescreenImage(ctx context.Context, data []byte, mimeType string) (bool, error)
	ExtractItems(ctx context.Context, data []byte, mimeType string) (string, error)
}

// ImageDownloader fetches image bytes plus their content type.
type ImageDownloader func(ctx context.Context, url, userAgent string) ([]byte, string, error)

const (
	OutcomeHit  = "hit"
	OutcomeLead = "lead"
	OutcomeSkip = "skip"
)

type ProcessingService struct {
	db       *storage.DB
	cfg      config.Config
	holder   *catalog.Holder
	vision   VisionClient
	screener *Screener
	notifier notify.Service
	download ImageDownloader
}

func NewProcessingService(db *storage.DB, cfg config.Config, holder *catalog.Holder, vision VisionClient, classifier Classifier, notifier notify.Service, download ImageDownloader) *ProcessingService {
	return &ProcessingService{
		db:       db,
		cfg:      cfg,
		holder:   holder,
		vision:   vision,
		screener: NewScreener(cfg.MinValueThreshold, classifier),
		notifier: notifier,
		download: download,
	}
}

type ProcessResult struct {
	PostDBID int
	Outcome  string
	Reason   string
}

func (s *ProcessingService) ProcessBySubredditPostID(ctx context.Context, subreddit, postID string) (ProcessResult, error) {
	post, err := s.db.MustPostBySubredditPostID(subreddit, postID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessPost(ctx, post)
}

func (s *ProcessingService) ProcessPending(ctx context.Context, limit int) ([]ProcessResult, error) {
	pending, err := s.db.ListPostsByStatus("fetched", limit)
	if err != nil {
		return nil, err
	}

	results := make([]ProcessResult, 0, len(pending))
	for _, post := range pending {
		res, err := s.ProcessPost(ctx, post)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *ProcessingService) ProcessPost(ctx context.Context, post internal.PostRow) (ProcessResult, error) {
	start := time.Now()

	raw, err := os.ReadFile(post.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}
	content := ParsePostContent(raw)

	title := firstNonEmpty(content.Title, post.Title)
	flair := firstNonEmpty(content.Flair, post.Flair)
	postURL := post.Permalink

	if err := s.db.ClearPostProcessing(post.ID); err != nil {
		return ProcessResult{}, err
	}

	detect := DetectLeadCandidate(title, content.Body, flair, len(content.ImageURLs) > 0)
	if !detect.Eligible {
		return s.finish(post, start, internal.ScreeningDecision{Reason: detect.Reason}, OutcomeSkip, 0)
	}

	idx := s.holder.Current()

	if len(content.ImageURLs) > 0 {
		return s.processImagePost(ctx, post, idx, content, title, postURL, start)
	}

	decision := s.screener.Screen(ctx, title, content.Body, idx)
	source := decision.Source
	if source == "" {
		source = internal.SourceTextScan
	}
	for _, m := range decision.Matched {
		mention := internal.DetectedMention{RawName: m.DetectedAs}
		match := m
		if err := s.db.InsertDetection(post.ID, source, mention, &match); err != nil {
			return ProcessResult{}, err
		}
	}

	outcome := OutcomeSkip
	if decision.IsLead {
		outcome = OutcomeLead
		if err := s.notifier.NotifyTextLead(ctx, title, postURL, content.Body, decision.Reason, decision.Matched); err != nil {
			fmt.Printf("notify lead failed: %v\n", err)
		}
	} else if s.cfg.MonitorTestMode {
		_ = s.notifier.NotifySkip(ctx, postURL, decision.Reason)
	}

	return s.finish(post, start, decision, outcome, len(decision.Matched))
}

func (s *ProcessingService) processImagePost(ctx context.Context, post internal.PostRow, idx *catalog.Index, content PostContent, title, postURL string, start time.Time) (ProcessResult, error) {
	if s.vision == nil {
		return s.finish(post, start, internal.ScreeningDecision{Reason: "image post but no vision client configured"}, OutcomeSkip, 0)
	}

	for _, imageURL := range content.ImageURLs {
		matches, err := s.ScanImage(ctx, imageURL, idx)
		if err != nil {
			fmt.Printf("  image scan error: %v\n", err)
			continue
		}
		if len(matches) == 0 {
			continue
		}

		for _, m := range matches {
			mention := internal.DetectedMention{RawName: m.DetectedAs}
			match := m
			if err := s.db.InsertDetection(post.ID, internal.SourceImageCaption, mention, &match); err != nil {
				return ProcessResult{}, err
			}
		}

		best := matches[0]
		if err := s.notifier.NotifyItemHit(ctx, best, title, postURL); err != nil {
			fmt.Printf("notify hit failed: %v\n", err)
		}

		decision := internal.ScreeningDecision{
			IsLead:  true,
			Reason:  "Image mentions Rolimons-listed item(s): " + joinNames(matches),
			Matched: matches,
		}
		return s.finish(post, start, decision, OutcomeHit, len(matches))
	}

	reason := fmt.Sprintf("scanned image(s) but no catalog item at or above R$ %s value", util.FormatValue(s.cfg.MinValueThreshold))
	if s.cfg.MonitorTestMode {
		_ = s.notifier.NotifySkip(ctx, postURL, reason)
	}
	return s.finish(post, start, internal.ScreeningDecision{Reason: reason}, OutcomeSkip, 0)
}

// ScanImage runs the full vision path for one image URL: download once,
// prescreen, extract, parse, match. Only catalog matches at or above the
// threshold come back, sorted by value descending.
func (s *ProcessingService) ScanImage(ctx context.Context, imageURL string, idx *catalog.Index) ([]internal.MatchResult, error) {
	if s.vision == nil {
		return nil, fmt.Errorf("no vision client configured")
	}

	data, mimeType, err := s.download(ctx, imageURL, s.cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}

	relevant, err := s.vision.PrescreenImage(ctx, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("prescreen image: %w", err)
	}
	if !relevant {
		return nil, nil
	}

	rawReply, err := s.vision.ExtractItems(ctx, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extract items: %w", err)
	}

	mentions := ParseDetectedMentions(rawReply)
	if len(mentions) == 0 {
		return nil, nil
	}

	return MatchBatch(mentions, idx, s.cfg.MinValueThreshold), nil
}

func (s *ProcessingService) finish(post internal.PostRow, start time.Time, decision internal.ScreeningDecision, outcome string, matched int) (ProcessResult, error) {
	if err := s.db.InsertDecision(post.ID, outcome, decision); err != nil {
		return ProcessResult{}, err
	}

	status := "processed"
	if outcome == OutcomeSkip {
		status = "skipped"
	}
	if err := s.db.UpdatePostStatus(post.ID, status); err != nil {
		return ProcessResult{}, err
	}

	_ = s.db.InsertRun(traceID(), post.ID,
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"matched": matched},
	)

	return ProcessResult{PostDBID: post.ID, Outcome: outcome, Reason: decision.Reason}, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
