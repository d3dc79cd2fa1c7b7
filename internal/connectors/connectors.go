package connectors

import "github.com/froosterton/reddih/internal"

type PostConnector interface {
	FetchNew(subreddit string, max int) ([]internal.FetchedPost, error)
}
