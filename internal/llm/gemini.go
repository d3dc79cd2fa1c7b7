package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const prescreenPrompt = `Look at this image carefully.
Is this image referencing a Roblox limited item? Roblox limited items are special virtual accessories/gear that can be traded between players (hats, faces, gear, etc.).

Signs that an image references a limited item:
- A Roblox trade window showing items
- An inventory showing items with RAP/value numbers
- Text mentioning specific Roblox limited item names or acronyms
- A Roblox avatar wearing recognizable limited items
- A Rolimons page or similar value-checking site

Answer with ONLY the word: yes or no`

const extractPrompt = `This image is from a Reddit post about Roblox limited items.
Your job is to identify EVERY Roblox limited item name mentioned or shown anywhere in this image.

The image could be ANY of these formats:
- A Roblox trade window showing items on both sides
- An inventory or catalog screenshot
- A Rolimons value change notification (item name as title, old/new values)
- A Rolimons item page or chart
- A text post or meme mentioning item names
- An avatar wearing limited items
- A screenshot of any Roblox-related site or app

For each item, extract:
- "name": the full item name exactly as displayed in the image
- "value": the highest numerical value shown for that item (could be labeled as value, RAP, new value, price, etc). Use 0 if no value is visible.

Return ONLY a valid JSON array of objects.
Examples:
  [{"name": "Domino Crown", "value": 24000000}]
  [{"name": "Bighead", "value": 5000}, {"name": "Goldrow", "value": 316}]

Important:
- Read the EXACT item names from the image text, do not guess.
- If a value is shown with commas (like 4,200,000), return it as a number (4200000).
- Look EVERYWHERE in the image for item names — titles, labels, text, etc.
- Even if only ONE item is shown, return it in the array.
- If you truly cannot find any Roblox item names, return: []`

const screenPromptFormat = `You are a strict filter for a Roblox LIMITED ITEM trading monitor.

Roblox 'limited items' are special collectible avatar accessories (hats, faces, gear, hair) with finite supply that are traded between players.

Read this Reddit post and determine if the author is:
1. A returning player who owns Roblox limited items and wants to know their value
2. Asking how to sell their Roblox limited items or limited-holding account
3. Asking what their Roblox account with limiteds is worth
4. Trading or offering specific Roblox limited items

The person must clearly indicate they OWN limited items (or an old account that likely has limiteds) and want to sell, value, or trade them.

Answer NO if:
- They are selling Adopt Me, Blox Fruits, Murder Mystery, Royale High, or any other in-game items (NOT limiteds)
- They are selling Robux or gift cards
- They are buying, not selling
- The post is a meme, joke, scam report, or rant
- It's unclear or vague what they are selling

Be EXTREMELY strict. When in doubt, say NO.

--- POST ---
%s
--- END ---

Respond in EXACTLY this format (three lines only):
VERDICT: yes or no
REASON: one sentence explaining why
ITEMS: comma-separated list of the specific Roblox limited item names mentioned in the post (use the full official item name if you know it, otherwise use exactly what the post says). Write 'none' if no specific item names are mentioned.`

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// PrescreenImage asks a cheap yes/no before the full extraction call: does
// this image reference a limited item at all?
func (c *GeminiClient) PrescreenImage(ctx context.Context, data []byte, mimeType string) (bool, error) {
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prescreenPrompt), genai.ImageData(imageFormat(mimeType), data))
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(responseText(resp)))
	return strings.HasPrefix(answer, "yes"), nil
}

// ExtractItems returns the model's raw reply; the pipeline parses it into
// mentions.
func (c *GeminiClient) ExtractItems(ctx context.Context, data []byte, mimeType string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(extractPrompt), genai.ImageData(imageFormat(mimeType), data))
	if err != nil {
		return "", err
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("no response candidates or content")
	}
	return text, nil
}

// ScreenPost implements the pipeline's Classifier interface.
func (c *GeminiClient) ScreenPost(ctx context.Context, title, body string) (string, error) {
	combined := "Title: " + title
	if strings.TrimSpace(body) != "" {
		combined += "\n\nBody: " + body
	}

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(screenPromptFormat, combined)))
	if err != nil {
		return "", err
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("no response candidates or content")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// imageFormat maps a content type to the bare format genai.ImageData wants
// ("image/jpeg; charset=..." -> "jpeg").
func imageFormat(mimeType string) string {
	format := strings.TrimSpace(mimeType)
	if idx := strings.Index(format, ";"); idx >= 0 {
		format = format[:idx]
	}
	format = strings.TrimPrefix(strings.TrimSpace(format), "image/")
	if format == "" {
		return "jpeg"
	}
	return format
}
