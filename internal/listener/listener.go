package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/froosterton/reddih/internal/catalog"
	"github.com/froosterton/reddih/internal/config"
	"github.com/froosterton/reddih/internal/connectors"
	redditconnector "github.com/froosterton/reddih/internal/connectors/reddit"
	"github.com/froosterton/reddih/internal/llm"
	"github.com/froosterton/reddih/internal/notify"
	"github.com/froosterton/reddih/internal/pipeline"
	"github.com/froosterton/reddih/internal/storage"
)

type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Run polls the configured subreddits until the context is cancelled. The
// catalog index is refreshed in place between cycles once it goes stale, so
// long-running monitors pick up Rolimons value changes without a restart.
func (s *Service) Run(ctx context.Context) error {
	syncService := catalog.NewSyncService(s.db, s.cfg)

	idx, err := syncService.Sync(ctx)
	if err != nil {
		fmt.Printf("initial catalog sync failed, falling back to cached copy: %v\n", err)
		idx, err = syncService.LoadIndex()
		if err != nil {
			return fmt.Errorf("load cached catalog: %w", err)
		}
	}
	holder := catalog.NewHolder(idx)
	fmt.Printf("catalog ready items=%d\n", holder.Current().Len())

	var vision pipeline.VisionClient
	var classifier pipeline.Classifier
	if strings.TrimSpace(s.cfg.GeminiAPIKey) != "" {
		gemini, err := llm.NewGeminiClient(ctx, s.cfg.GeminiAPIKey, s.cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		defer gemini.Close()
		vision = gemini
		classifier = gemini
	} else {
		fmt.Println("no GEMINI_API_KEY set, running without vision or classifier")
	}

	notifier := notify.NewService(s.cfg)
	if err := notifier.NotifyStartup(ctx, s.cfg.Subreddits, s.cfg.MonitorIntervalSec); err != nil {
		fmt.Printf("startup notification failed: %v\n", err)
	}

	connector, err := redditconnector.NewConnector(s.cfg)
	if err != nil {
		return err
	}
	fetchService := connectors.NewFetchService(s.db, s.cfg.RawPostDir, connector)
	processor := pipeline.NewProcessingService(s.db, s.cfg, holder, vision, classifier, notifier, llm.DownloadImage)

	for {
		if err := s.runCycle(ctx, holder, syncService, fetchService, processor); err != nil {
			fmt.Printf("monitor cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MonitorIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context, holder *catalog.Holder, syncService *catalog.SyncService, fetchService *connectors.FetchService, processor *pipeline.ProcessingService) error {
	if syncService.Stale() {
		if idx, err := syncService.Sync(ctx); err != nil {
			fmt.Printf("catalog refresh failed, keeping current index: %v\n", err)
		} else {
			holder.Swap(idx)
			fmt.Printf("catalog refreshed items=%d\n", idx.Len())
		}
	}

	totalFetched := 0
	totalNew := 0
	for _, subreddit := range s.cfg.Subreddits {
		result, err := fetchService.FetchAndStore(subreddit, s.cfg.MonitorFetchMax)
		if err != nil {
			fmt.Printf("fetch failed subreddit=%s: %v\n", subreddit, err)
			continue
		}
		totalFetched += result.Fetched
		totalNew += result.New
	}

	results, err := processor.ProcessPending(ctx, s.cfg.MonitorProcessBatch)
	if err != nil {
		return err
	}

	if s.cfg.MonitorAutoExport {
		if err := s.exportProcessed(); err != nil {
			return err
		}
	}

	fmt.Printf("monitor cycle done fetched=%d new=%d processed=%d\n", totalFetched, totalNew, len(results))
	return nil
}

func (s *Service) exportProcessed() error {
	posts, err := s.db.ListPostsByStatus("processed", 200)
	if err != nil {
		return err
	}

	for _, post := range posts {
		rows, err := s.db.GetExportRows(post.ID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		filename := fmt.Sprintf("%d_%s_%s.xlsx", post.ID, post.Subreddit, sanitizePostID(post.PostID))
		outputPath := filepath.Join(s.cfg.OutputDir, "monitor", filename)
		if err := pipeline.ExportRowsToXLSX(rows, outputPath); err != nil {
			return err
		}
		_ = s.db.UpdatePostStatus(post.ID, "exported")
	}
	return nil
}

func sanitizePostID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_")
	out := repl.Replace(input)
	if len(out) > 60 {
		out = out[:60]
	}
	return out
}
