package catalog

import (
	"context"
	"time"

	"github.com/froosterton/reddih/internal/config"
	"github.com/froosterton/reddih/internal/storage"
)

// SyncService pulls the Rolimons snapshot, caches it in sqlite, and builds
// the in-memory index. The sqlite cache lets the monitor come up and keep
// matching while the API is unreachable.
type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

// Sync fetches a full snapshot and returns a freshly built index. The index
// is complete before it is returned; callers publish it via Holder.Swap.
func (s *SyncService) Sync(ctx context.Context) (*Index, error) {
	entries, err := s.client.GetItemDetails(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertItems(entries); err != nil {
		return nil, err
	}
	_ = s.db.SetMetadata("catalog.last_sync", time.Now().UTC().Format(time.RFC3339))
	return BuildIndex(entries), nil
}

// LoadIndex builds an index from the sqlite cache without touching the API.
func (s *SyncService) LoadIndex() (*Index, error) {
	entries, err := s.db.ListItems()
	if err != nil {
		return nil, err
	}
	return BuildIndex(entries), nil
}

// Stale reports whether the last successful sync is older than the
// configured refresh cadence.
func (s *SyncService) Stale() bool {
	last, err := s.db.GetMetadata("catalog.last_sync")
	if err != nil || last == nil {
		return true
	}
	parsed, err := time.Parse(time.RFC3339, *last)
	if err != nil {
		return true
	}
	return time.Since(parsed) > time.Duration(s.cfg.RolimonsRefreshMins)*time.Minute
}
