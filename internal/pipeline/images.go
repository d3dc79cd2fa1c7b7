package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	imageDomains    = []string{"i.redd.it", "i.imgur.com", "preview.redd.it"}

	reBodyImageURL = regexp.MustCompile(`https?://(?:i\.redd\.it|i\.imgur\.com|preview\.redd\.it)/[^\s\)\]>"]+`)
)

// PostContent is the part of a raw Reddit post payload the pipeline cares
// about. Parsed leniently: missing fields stay zero.
type PostContent struct {
	Title     string
	Body      string
	BodyHTML  string
	Flair     string
	URL       string
	ImageURLs []string
}

// ParsePostContent decodes the stored raw post JSON (one listing child's
// data object) and extracts the referenced image URLs.
func ParsePostContent(raw []byte) PostContent {
	var data struct {
		Title         string `json:"title"`
		Selftext      string `json:"selftext"`
		SelftextHTML  string `json:"selftext_html"`
		LinkFlairText string `json:"link_flair_text"`
		URL           string `json:"url"`
		IsGallery     bool   `json:"is_gallery"`
		MediaMetadata map[string]struct {
			Status string `json:"status"`
			S      struct {
				U   string `json:"u"`
				URL string `json:"url"`
			} `json:"s"`
		} `json:"media_metadata"`
		Preview struct {
			Images []struct {
				Source struct {
					URL string `json:"url"`
				} `json:"source"`
			} `json:"images"`
		} `json:"preview"`
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return PostContent{}
	}

	content := PostContent{
		Title:    data.Title,
		Body:     strings.TrimSpace(data.Selftext),
		BodyHTML: data.SelftextHTML,
		Flair:    data.LinkFlairText,
		URL:      data.URL,
	}

	// Sources checked in priority order; the first that yields anything
	// wins, mirroring how Reddit surfaces the same image in several fields.

	if data.IsGallery {
		var urls []string
		for _, item := range data.MediaMetadata {
			if item.Status != "valid" {
				continue
			}
			if u := firstNonEmptyString(item.S.U, item.S.URL); u != "" {
				urls = append(urls, unescapeAmp(u))
			}
		}
		if len(urls) > 0 {
			content.ImageURLs = urls
			return content
		}
	}

	if isDirectImageURL(data.URL) {
		content.ImageURLs = []string{data.URL}
		return content
	}

	var previewURLs []string
	for _, img := range data.Preview.Images {
		if img.Source.URL != "" {
			previewURLs = append(previewURLs, unescapeAmp(img.Source.URL))
		}
	}
	if len(previewURLs) > 0 {
		content.ImageURLs = previewURLs
		return content
	}

	var mediaURLs []string
	for _, item := range data.MediaMetadata {
		if item.Status != "valid" {
			continue
		}
		if u := firstNonEmptyString(item.S.U, item.S.URL); u != "" {
			mediaURLs = append(mediaURLs, unescapeAmp(u))
		}
	}
	if len(mediaURLs) > 0 {
		content.ImageURLs = mediaURLs
		return content
	}

	content.ImageURLs = scanBodyImageURLs(data.SelftextHTML, data.Selftext)
	return content
}

func isDirectImageURL(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, domain := range imageDomains {
		if strings.Contains(url, domain) {
			return true
		}
	}
	return false
}

// scanBodyImageURLs pulls image links out of the post body: anchor/img
// elements in the rendered HTML first, then a raw-text sweep of the
// markdown source.
func scanBodyImageURLs(bodyHTML, body string) []string {
	var urls []string
	seen := map[string]struct{}{}

	add := func(u string) {
		u = unescapeAmp(strings.TrimSpace(u))
		if u == "" || !isDirectImageURL(u) {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	if bodyHTML != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(bodyHTML)); err == nil {
			doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
				if href, ok := sel.Attr("href"); ok {
					add(href)
				}
			})
			doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
				if src, ok := sel.Attr("src"); ok {
					add(src)
				}
			})
		}
	}

	for _, found := range reBodyImageURL.FindAllString(body, -1) {
		add(found)
	}

	return urls
}

func unescapeAmp(u string) string {
	return strings.ReplaceAll(u, "&amp;", "&")
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
