package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/storage"
)

// PostStoreService writes the raw post JSON to disk (content-addressed) and
// records the row in sqlite. Re-storing a known post refreshes its raw blob
// but keeps its status, so processed posts are not re-processed.
type PostStoreService struct {
	db         *storage.DB
	rawPostDir string
}

func NewPostStoreService(db *storage.DB, rawPostDir string) *PostStoreService {
	return &PostStoreService{db: db, rawPostDir: rawPostDir}
}

func (s *PostStoreService) Store(post internal.FetchedPost) (internal.PostRow, bool, error) {
	hashBytes := sha256.Sum256(post.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawPostDir, 0o755); err != nil {
		return internal.PostRow{}, false, err
	}

	rawPath := filepath.Join(s.rawPostDir, hash+".json")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, post.Raw, 0o644); err != nil {
			return internal.PostRow{}, false, err
		}
	}

	existing, err := s.db.GetPostBySubredditPostID(post.Subreddit, post.PostID)
	if err != nil {
		return internal.PostRow{}, false, err
	}

	row, err := s.db.UpsertPost(post, hash, rawPath, "fetched")
	if err != nil {
		return internal.PostRow{}, false, err
	}
	return row, existing == nil, nil
}
