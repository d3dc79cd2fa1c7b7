package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/froosterton/reddih/internal/catalog"
	"github.com/froosterton/reddih/internal/config"
	"github.com/froosterton/reddih/internal/connectors"
	redditconnector "github.com/froosterton/reddih/internal/connectors/reddit"
	"github.com/froosterton/reddih/internal/listener"
	"github.com/froosterton/reddih/internal/llm"
	"github.com/froosterton/reddih/internal/notify"
	"github.com/froosterton/reddih/internal/pipeline"
	"github.com/froosterton/reddih/internal/storage"
	"github.com/froosterton/reddih/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:sync":
		svc := catalog.NewSyncService(db, cfg)
		idx, err := svc.Sync(context.Background())
		must(err)
		fmt.Printf("catalog sync complete: %d items indexed\n", idx.Len())
	case "posts:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		subreddit := fs.String("subreddit", "", "subreddit name, defaults to all configured")
		max := fs.Int("max", cfg.MonitorFetchMax, "max posts per subreddit")
		_ = fs.Parse(os.Args[2:])
		conn, err := redditconnector.NewConnector(cfg)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawPostDir, conn)
		subreddits := cfg.Subreddits
		if strings.TrimSpace(*subreddit) != "" {
			subreddits = []string{*subreddit}
		}
		for _, sub := range subreddits {
			result, err := fetch.FetchAndStore(sub, *max)
			must(err)
			fmt.Printf("posts fetch done subreddit=%s fetched=%d new=%d\n", sub, result.Fetched, result.New)
		}
	case "posts:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		subreddit := fs.String("subreddit", "", "subreddit of a specific post")
		postID := fs.String("postId", "", "specific reddit post id")
		batch := fs.Int("batch", cfg.MonitorProcessBatch, "batch size")
		_ = fs.Parse(os.Args[2:])
		ctx := context.Background()
		processor, cleanup, err := buildProcessor(ctx, db, cfg)
		must(err)
		defer cleanup()
		if strings.TrimSpace(*postID) != "" {
			if strings.TrimSpace(*subreddit) == "" {
				must(fmt.Errorf("--subreddit is required with --postId"))
			}
			res, err := processor.ProcessBySubredditPostID(ctx, *subreddit, *postID)
			must(err)
			fmt.Printf("processed post id=%d outcome=%s reason=%s\n", res.PostDBID, res.Outcome, res.Reason)
			return
		}
		results, err := processor.ProcessPending(ctx, *batch)
		must(err)
		for _, res := range results {
			fmt.Printf("processed post id=%d outcome=%s\n", res.PostDBID, res.Outcome)
		}
		fmt.Printf("processed pending posts=%d\n", len(results))
	case "scan:text":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		text := fs.String("text", "", "text to scan")
		file := fs.String("file", "", "file with text to scan")
		_ = fs.Parse(os.Args[2:])
		input := *text
		if strings.TrimSpace(*file) != "" {
			data, err := os.ReadFile(*file)
			must(err)
			input = string(data)
		}
		if strings.TrimSpace(input) == "" {
			must(fmt.Errorf("--text or --file is required"))
		}
		idx, err := loadIndex(context.Background(), db, cfg)
		must(err)
		above, below := pipeline.Scan(input, idx, cfg.MinValueThreshold)
		for _, m := range above {
			fmt.Printf("above  %s (R$ %s) detected as %q\n", m.Name, util.FormatValue(m.Value), m.DetectedAs)
		}
		for _, m := range below {
			fmt.Printf("below  %s (R$ %s) detected as %q\n", m.Name, util.FormatValue(m.Value), m.DetectedAs)
		}
		if len(above)+len(below) == 0 {
			fmt.Println("no catalog mentions found")
		}
	case "scan:image":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		imageURL := fs.String("url", "", "image url to scan")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*imageURL) == "" {
			must(fmt.Errorf("--url is required"))
		}
		must(cfg.Require("GEMINI_API_KEY", cfg.GeminiAPIKey))
		ctx := context.Background()
		processor, cleanup, err := buildProcessor(ctx, db, cfg)
		must(err)
		defer cleanup()
		idx, err := loadIndex(ctx, db, cfg)
		must(err)
		matches, err := processor.ScanImage(ctx, *imageURL, idx)
		must(err)
		if len(matches) == 0 {
			fmt.Println("no catalog items at or above threshold in image")
			return
		}
		for _, m := range matches {
			fmt.Printf("match  %s (R$ %s) detected as %q\n", m.Name, util.FormatValue(m.Value), m.DetectedAs)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		postDBID := fs.Int("postDbId", 0, "internal post id, 0 exports all decided posts")
		limit := fs.Int("limit", 500, "row limit for full export")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		if *postDBID > 0 {
			rows, err := db.GetExportRows(*postDBID)
			must(err)
			if len(rows) == 0 {
				must(fmt.Errorf("no export rows for postDbId=%d", *postDBID))
			}
			must(pipeline.ExportRowsToXLSX(rows, *out))
			fmt.Printf("exported %d rows to %s\n", len(rows), *out)
			return
		}
		rowsAll, err := db.ListExportRows(*limit)
		must(err)
		must(pipeline.ExportRowsToXLSX(rowsAll, *out))
		fmt.Printf("exported %d rows to %s\n", len(rowsAll), *out)
	case "monitor":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func loadIndex(ctx context.Context, db *storage.DB, cfg config.Config) (*catalog.Index, error) {
	svc := catalog.NewSyncService(db, cfg)
	idx, err := svc.LoadIndex()
	if err != nil {
		return nil, err
	}
	if idx.Len() == 0 || svc.Stale() {
		synced, err := svc.Sync(ctx)
		if err != nil {
			if idx.Len() > 0 {
				fmt.Printf("catalog refresh failed, using cached copy: %v\n", err)
				return idx, nil
			}
			return nil, err
		}
		return synced, nil
	}
	return idx, nil
}

func buildProcessor(ctx context.Context, db *storage.DB, cfg config.Config) (*pipeline.ProcessingService, func(), error) {
	idx, err := loadIndex(ctx, db, cfg)
	if err != nil {
		return nil, nil, err
	}
	holder := catalog.NewHolder(idx)

	cleanup := func() {}
	var vision pipeline.VisionClient
	var classifier pipeline.Classifier
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		vision = gemini
		classifier = gemini
		cleanup = func() { _ = gemini.Close() }
	}

	notifier := notify.NewService(cfg)
	return pipeline.NewProcessingService(db, cfg, holder, vision, classifier, notifier, llm.DownloadImage), cleanup, nil
}

func usage() {
	fmt.Println("usage: reddih <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:sync")
	fmt.Println("  posts:fetch [--subreddit=RobloxTrading] [--max=15]")
	fmt.Println("  posts:process [--subreddit=... --postId=...] [--batch=20]")
	fmt.Println("  scan:text --text=... | --file=...")
	fmt.Println("  scan:image --url=https://i.redd.it/...")
	fmt.Println("  export:xlsx [--postDbId=1] [--limit=500] --out=./out/decisions.xlsx")
	fmt.Println("  monitor")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
