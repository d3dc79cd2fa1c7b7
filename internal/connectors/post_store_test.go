package connectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/storage"
)

type fakeConnector struct {
	posts []internal.FetchedPost
}

func (f *fakeConnector) FetchNew(subreddit string, max int) ([]internal.FetchedPost, error) {
	if len(f.posts) > max {
		return f.posts[:max], nil
	}
	return f.posts, nil
}

func testPost(postID, title string) internal.FetchedPost {
	return internal.FetchedPost{
		Subreddit:  "RobloxTrading",
		PostID:     postID,
		Title:      title,
		Author:     "someone",
		Permalink:  "https://reddit.com/r/RobloxTrading/comments/" + postID,
		ReceivedAt: "2026-08-23T10:00:00Z",
		Raw:        []byte(`{"id": "` + postID + `", "title": "` + title + `"}`),
	}
}

func openTestDB(t *testing.T) (*storage.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, dir
}

func TestStoreWritesRawAndRow(t *testing.T) {
	db, dir := openTestDB(t)
	store := NewPostStoreService(db, filepath.Join(dir, "raw"))

	row, isNew, err := store.Store(testPost("abc1", "selling hats"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !isNew {
		t.Fatal("expected new post")
	}
	if row.Status != "fetched" {
		t.Fatalf("unexpected status: %q", row.Status)
	}

	data, err := os.ReadFile(row.RawRef)
	if err != nil {
		t.Fatalf("read raw ref: %v", err)
	}
	if string(data) != `{"id": "abc1", "title": "selling hats"}` {
		t.Fatalf("unexpected raw content: %s", data)
	}
}

func TestStoreKeepsStatusOnRestore(t *testing.T) {
	db, dir := openTestDB(t)
	store := NewPostStoreService(db, filepath.Join(dir, "raw"))

	row, _, err := store.Store(testPost("abc2", "old title"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := db.UpdatePostStatus(row.ID, "processed"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	again, isNew, err := store.Store(testPost("abc2", "edited title"))
	if err != nil {
		t.Fatalf("re-store: %v", err)
	}
	if isNew {
		t.Fatal("expected known post")
	}
	if again.ID != row.ID {
		t.Fatalf("expected same row, got %d and %d", row.ID, again.ID)
	}
	if again.Status != "processed" {
		t.Fatalf("re-store must not reset status, got %q", again.Status)
	}
	if again.Title != "edited title" {
		t.Fatalf("expected refreshed title, got %q", again.Title)
	}
}

func TestFetchAndStoreCountsNew(t *testing.T) {
	db, dir := openTestDB(t)
	conn := &fakeConnector{posts: []internal.FetchedPost{
		testPost("p1", "one"),
		testPost("p2", "two"),
	}}
	fetch := NewFetchService(db, filepath.Join(dir, "raw"), conn)

	result, err := fetch.FetchAndStore("RobloxTrading", 15)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Fetched != 2 || result.New != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Second cycle sees the same listing; nothing is new.
	result, err = fetch.FetchAndStore("RobloxTrading", 15)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Fetched != 2 || result.New != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
