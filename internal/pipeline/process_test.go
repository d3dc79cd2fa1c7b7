package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/catalog"
	"github.com/froosterton/reddih/internal/config"
	"github.com/froosterton/reddih/internal/notify"
	"github.com/froosterton/reddih/internal/storage"
)

type fakeVision struct {
	relevant bool
	reply    string
}

func (f *fakeVision) PrescreenImage(context.Context, []byte, string) (bool, error) {
	return f.relevant, nil
}

func (f *fakeVision) ExtractItems(context.Context, []byte, string) (string, error) {
	return f.reply, nil
}

func fakeDownload(context.Context, string, string) ([]byte, string, error) {
	return []byte("not a real image"), "image/png", nil
}

func newTestService(t *testing.T, vision VisionClient, classifier Classifier) (*ProcessingService, *storage.DB, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		MinValueThreshold: 100000,
		UserAgent:         "test/1.0",
		MonitorTestMode:   false,
	}

	holder := catalog.NewHolder(testIndex())

	svc := NewProcessingService(db, cfg, holder, vision, classifier, notify.NewService(cfg), fakeDownload)
	return svc, db, dir
}

func storeRawPost(t *testing.T, db *storage.DB, dir, subreddit, postID, raw string) internal.PostRow {
	t.Helper()
	rawPath := filepath.Join(dir, postID+".json")
	if err := os.WriteFile(rawPath, []byte(raw), 0o644); err != nil {
		t.Fatalf("write raw post: %v", err)
	}
	row, err := db.UpsertPost(internal.FetchedPost{
		Subreddit: subreddit,
		PostID:    postID,
		Title:     "placeholder",
		Permalink: "https://reddit.com/r/" + subreddit + "/" + postID,
	}, "hash-"+postID, rawPath, "fetched")
	if err != nil {
		t.Fatalf("upsert post: %v", err)
	}
	return row
}

func TestProcessPostTextLead(t *testing.T) {
	svc, db, dir := newTestService(t, nil, nil)
	post := storeRawPost(t, db, dir, "RobloxTrading", "t1",
		`{"title": "quitting roblox, selling my Domino Crown", "selftext": "dm me offers"}`)

	res, err := svc.ProcessPost(context.Background(), post)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Outcome != OutcomeLead {
		t.Fatalf("expected lead, got %+v", res)
	}

	updated, err := db.GetPostByID(post.ID)
	if err != nil || updated == nil {
		t.Fatalf("reload post: %v", err)
	}
	if updated.Status != "processed" {
		t.Fatalf("expected processed status, got %q", updated.Status)
	}

	rows, err := db.GetExportRows(post.ID)
	if err != nil {
		t.Fatalf("export rows: %v", err)
	}
	if len(rows) != 1 || rows[0].Outcome != OutcomeLead {
		t.Fatalf("unexpected export rows: %+v", rows)
	}
	if rows[0].ItemName == nil || *rows[0].ItemName != "Domino Crown" {
		t.Fatalf("unexpected item in export row: %+v", rows[0])
	}
}

func TestProcessPostTextOnlyNoKeywordsSkipped(t *testing.T) {
	svc, db, dir := newTestService(t, nil, nil)
	post := storeRawPost(t, db, dir, "RobloxTrading", "t2",
		`{"title": "what should I trade for", "selftext": "any advice"}`)

	res, err := svc.ProcessPost(context.Background(), post)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Outcome != OutcomeSkip {
		t.Fatalf("expected skip, got %+v", res)
	}

	updated, _ := db.GetPostByID(post.ID)
	if updated.Status != "skipped" {
		t.Fatalf("expected skipped status, got %q", updated.Status)
	}
}

func TestProcessPostImageHit(t *testing.T) {
	vision := &fakeVision{
		relevant: true,
		reply:    `[{"name": "Dominus Formidulos", "value": "2,500,000"}, {"name": "Goldrow", "value": 316}]`,
	}
	svc, db, dir := newTestService(t, vision, nil)
	post := storeRawPost(t, db, dir, "RobloxTrading", "i1",
		`{"title": "my inventory", "url": "https://i.redd.it/inv.png"}`)

	res, err := svc.ProcessPost(context.Background(), post)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Outcome != OutcomeHit {
		t.Fatalf("expected hit, got %+v", res)
	}

	rows, err := db.GetExportRows(post.ID)
	if err != nil {
		t.Fatalf("export rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 export row (below-threshold item dropped), got %+v", rows)
	}
	if rows[0].ItemName == nil || *rows[0].ItemName != "Dominus Formidulosus" {
		t.Fatalf("expected prefix-matched item, got %+v", rows[0])
	}
	if rows[0].Source != string(internal.SourceImageCaption) {
		t.Fatalf("unexpected source: %q", rows[0].Source)
	}
}

func TestProcessPostImageNotRelevant(t *testing.T) {
	vision := &fakeVision{relevant: false}
	svc, db, dir := newTestService(t, vision, nil)
	post := storeRawPost(t, db, dir, "RobloxTrading", "i2",
		`{"title": "my inventory", "url": "https://i.redd.it/cat.png"}`)

	res, err := svc.ProcessPost(context.Background(), post)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Outcome != OutcomeSkip {
		t.Fatalf("expected skip, got %+v", res)
	}
}

func TestProcessPostExcluded(t *testing.T) {
	svc, db, dir := newTestService(t, nil, nil)
	post := storeRawPost(t, db, dir, "RobloxTrading", "x1",
		`{"title": "scammer stole my valk", "selftext": ""}`)

	res, err := svc.ProcessPost(context.Background(), post)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Outcome != OutcomeSkip {
		t.Fatalf("expected skip, got %+v", res)
	}
}

func TestProcessPendingReprocessIsIdempotent(t *testing.T) {
	svc, db, dir := newTestService(t, nil, nil)
	post := storeRawPost(t, db, dir, "RobloxTrading", "t3",
		`{"title": "quitting roblox, selling my Domino Crown", "selftext": ""}`)

	if _, err := svc.ProcessPost(context.Background(), post); err != nil {
		t.Fatalf("first process: %v", err)
	}
	if _, err := svc.ProcessPost(context.Background(), post); err != nil {
		t.Fatalf("second process: %v", err)
	}

	rows, err := db.GetExportRows(post.ID)
	if err != nil {
		t.Fatalf("export rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected detections cleared before reprocess, got %+v", rows)
	}
}
