package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/froosterton/reddih/internal"
	"github.com/froosterton/reddih/internal/config"
)

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *Limiter
}

type itemDetailsPayload struct {
	Success   bool             `json:"success"`
	ItemCount int              `json:"item_count"`
	Items     map[string][]any `json:"items"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RolimonsTimeoutMs) * time.Millisecond},
		limiter:    NewLimiter(cfg.RolimonsRateLimitRPS),
	}
}

// GetItemDetails fetches the complete limited-item catalog. Entries that do
// not fit the expected array shape are skipped rather than failing the whole
// snapshot.
func (c *Client) GetItemDetails(ctx context.Context) ([]internal.CatalogEntry, error) {
	body, err := c.fetchJSON(ctx, c.cfg.RolimonsAPIURL)
	if err != nil {
		return nil, err
	}

	var payload itemDetailsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, errors.New("rolimons api unsuccessful")
	}

	entries := make([]internal.CatalogEntry, 0, len(payload.Items))
	for id, fields := range payload.Items {
		entry, err := toCatalogEntry(id, fields)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	// The API returns an unordered object; a stable order keeps sqlite
	// upserts and index builds reproducible.
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	return entries, nil
}

func (c *Client) fetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("rolimons status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("rolimons api error: status=%d body=%s", resp.StatusCode, truncate(string(body), 200))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("rolimons request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// toCatalogEntry maps one raw item array. The API ships roughly ten elements
// per item; only the first four matter here: name, acronym, reference value
// (RAP), override value (-1 when absent).
func toCatalogEntry(id string, fields []any) (internal.CatalogEntry, error) {
	itemID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return internal.CatalogEntry{}, fmt.Errorf("bad item id %q", id)
	}
	if len(fields) < 4 {
		return internal.CatalogEntry{}, errors.New("short item tuple")
	}

	name, _ := fields[0].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.CatalogEntry{}, errors.New("empty item name")
	}

	acronym, _ := fields[1].(string)

	ref, ok := toInt64(fields[2])
	if !ok {
		return internal.CatalogEntry{}, errors.New("bad reference value")
	}
	override, ok := toInt64(fields[3])
	if !ok {
		return internal.CatalogEntry{}, errors.New("bad override value")
	}

	return internal.CatalogEntry{
		ID:             itemID,
		Name:           name,
		Acronym:        strings.TrimSpace(acronym),
		ReferenceValue: ref,
		OverrideValue:  override,
	}, nil
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case json.Number:
		i, err := t.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
