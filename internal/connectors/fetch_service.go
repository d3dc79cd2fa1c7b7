package connectors

import (
	"github.com/froosterton/reddih/internal/storage"
)

type FetchService struct {
	connector PostConnector
	store     *PostStoreService
}

type FetchResult struct {
	Fetched int
	New     int
}

func NewFetchService(db *storage.DB, rawPostDir string, connector PostConnector) *FetchService {
	return &FetchService{
		connector: connector,
		store:     NewPostStoreService(db, rawPostDir),
	}
}

func (s *FetchService) FetchAndStore(subreddit string, max int) (FetchResult, error) {
	posts, err := s.connector.FetchNew(subreddit, max)
	if err != nil {
		return FetchResult{}, err
	}

	newCount := 0
	for _, post := range posts {
		_, isNew, err := s.store.Store(post)
		if err != nil {
			return FetchResult{}, err
		}
		if isNew {
			newCount++
		}
	}

	return FetchResult{Fetched: len(posts), New: newCount}, nil
}
