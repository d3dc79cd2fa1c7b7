package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/config"
)

const (
	tokenURL      = "https://www.reddit.com/api/v1/access_token"
	oauthBaseURL  = "https://oauth.reddit.com"
	publicBaseURL = "https://www.reddit.com"
)

// Connector fetches /new listings. With app credentials configured it goes
// through Reddit's app-only OAuth2 flow; without them it falls back to the
// public JSON endpoint, which is fine for the low poll rates this runs at.
type Connector struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewConnector(cfg config.Config) (*Connector, error) {
	if strings.TrimSpace(cfg.RedditClientID) != "" && strings.TrimSpace(cfg.RedditClientSecret) != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
			TokenURL:     tokenURL,
		}
		client := cc.Client(context.Background())
		client.Timeout = 30 * time.Second
		return &Connector{
			baseURL:    oauthBaseURL,
			userAgent:  cfg.UserAgent,
			httpClient: client,
		}, nil
	}

	return &Connector{
		baseURL:    publicBaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type listingPayload struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postFields struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	LinkFlairText string  `json:"link_flair_text"`
	Permalink     string  `json:"permalink"`
	CreatedUTC    float64 `json:"created_utc"`
}

func (c *Connector) FetchNew(subreddit string, max int) ([]internal.FetchedPost, error) {
	u := fmt.Sprintf("%s/r/%s/new.json?%s", c.baseURL, url.PathEscape(subreddit), url.Values{
		"limit":    {strconv.Itoa(max)},
		"raw_json": {"1"},
	}.Encode())

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reddit api error: status=%d subreddit=%s", resp.StatusCode, subreddit)
	}

	var payload listingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	out := make([]internal.FetchedPost, 0, len(payload.Data.Children))
	for _, child := range payload.Data.Children {
		var fields postFields
		if err := json.Unmarshal(child.Data, &fields); err != nil {
			continue
		}
		if fields.ID == "" {
			continue
		}

		received := time.Now().UTC()
		if fields.CreatedUTC > 0 {
			received = time.Unix(int64(fields.CreatedUTC), 0).UTC()
		}

		out = append(out, internal.FetchedPost{
			Subreddit:  subreddit,
			PostID:     fields.ID,
			Title:      fields.Title,
			Author:     fields.Author,
			Flair:      fields.LinkFlairText,
			Permalink:  "https://reddit.com" + fields.Permalink,
			ReceivedAt: received.Format(time.RFC3339),
			Raw:        child.Data,
		})
	}

	return out, nil
}
