package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultThumbnailBaseURL = "https://thumbnails.roblox.com/v1/assets"

// ThumbnailClient looks up the Roblox CDN image for an item so alerts can
// carry a picture. Failures just mean no thumbnail.
type ThumbnailClient struct {
	baseURL string
	client  *http.Client
}

func NewThumbnailClient() *ThumbnailClient {
	return &ThumbnailClient{
		baseURL: defaultThumbnailBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *ThumbnailClient) ItemThumbnail(ctx context.Context, itemID int64) string {
	if itemID == 0 {
		return ""
	}

	url := fmt.Sprintf("%s?assetIds=%d&returnPolicy=PlaceHolder&size=420x420&format=Png&isCircular=false", c.baseURL, itemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var payload struct {
		Data []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	if len(payload.Data) == 0 {
		return ""
	}
	return payload.Data[0].ImageURL
}
