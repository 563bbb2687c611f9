package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"

	"github.com/rewired-gh/mandipulse/internal/catalog"
	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/models"
)

var (
	positiveWords = []string{"increase", "boost", "growth", "rise", "good", "better", "improved", "higher", "benefit"}
	negativeWords = []string{"decrease", "fall", "drop", "decline", "poor", "worse", "damaged", "lower", "problem"}
)

// NewsFeed fetches agricultural news and always has something to return.
type NewsFeed struct {
	client *resty.Client
	url    string
	now    func() time.Time
}

type newsPayload struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// NewNewsFeed creates a feed; an empty url always serves the canned items.
func NewNewsFeed(url string, cfg ClientConfig) *NewsFeed {
	return &NewsFeed{client: newClient(cfg), url: url, now: time.Now}
}

// Fetch retrieves articles from the configured endpoint.
func (n *NewsFeed) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	if n.url == "" {
		return nil, fmt.Errorf("news: no endpoint configured: %w", ErrUnavailable)
	}
	body, err := get(ctx, n.client, n.url, nil)
	if err != nil {
		return nil, err
	}
	return parseNews(body, n.now())
}

// Latest returns fetched news, or the canned items when the fetch fails or is empty.
func (n *NewsFeed) Latest(ctx context.Context) []models.NewsItem {
	items, err := n.Fetch(ctx)
	if err != nil {
		logger.Debug("Using canned news: %v", err)
		return CannedNews(n.now())
	}
	if len(items) == 0 {
		logger.Debug("News endpoint returned no articles, using canned news")
		return CannedNews(n.now())
	}
	return items
}

func parseNews(body []byte, now time.Time) ([]models.NewsItem, error) {
	var p newsPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("news: %w: %v", ErrMalformedPayload, err)
	}
	items := make([]models.NewsItem, 0, len(p.Articles))
	for i, a := range p.Articles {
		if a.Title == "" {
			continue
		}
		text := a.Title + " " + a.Description
		items = append(items, models.NewsItem{
			ID:          fmt.Sprintf("news-%d", i),
			Title:       a.Title,
			Summary:     a.Description,
			Impact:      DetermineImpact(text),
			Commodities: ExtractCommodities(text),
			Timestamp:   parseDate(a.PublishedAt, now),
			Source:      firstNonEmpty(a.Source.Name, "Unknown"),
		})
	}
	return items, nil
}

// DetermineImpact compares positive and negative keyword hits.
func DetermineImpact(text string) models.Impact {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return models.ImpactPositive
	case neg > pos:
		return models.ImpactNegative
	default:
		return models.ImpactNeutral
	}
}

// ExtractCommodities lists catalog commodities mentioned as whole words in text.
func ExtractCommodities(text string) []string {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w] = true
	}
	found := []string{}
	for _, name := range catalog.Names() {
		if words[strings.ToLower(name)] {
			found = append(found, name)
		}
	}
	return found
}

// CannedNews is the fixed fallback feed, timestamped relative to now.
func CannedNews(now time.Time) []models.NewsItem {
	return []models.NewsItem{
		{
			ID:          "news-1",
			Title:       "Monsoon Forecast Boosts Kharif Crop Outlook",
			Summary:     "IMD predicts normal rainfall across major agricultural regions, expected to benefit rice and cotton production",
			Impact:      models.ImpactPositive,
			Commodities: []string{"Rice", "Cotton"},
			Timestamp:   now.Add(-2 * time.Hour),
			Source:      "Agricultural Ministry",
		},
		{
			ID:          "news-2",
			Title:       "Export Demand Drives Spice Prices Higher",
			Summary:     "International demand for Indian spices reaches new highs, particularly for turmeric and cardamom",
			Impact:      models.ImpactPositive,
			Commodities: []string{"Turmeric", "Cardamom"},
			Timestamp:   now.Add(-4 * time.Hour),
			Source:      "Spices Board India",
		},
		{
			ID:          "news-3",
			Title:       "Storage Issues Affect Onion Prices",
			Summary:     "Post-harvest storage problems lead to price volatility",
			Impact:      models.ImpactNegative,
			Commodities: []string{"Onion"},
			Timestamp:   now.Add(-6 * time.Hour),
			Source:      "Market Intelligence",
		},
		{
			ID:          "news-4",
			Title:       "Government Announces New MSP Rates",
			Summary:     "Minimum Support Prices increased for major Rabi crops",
			Impact:      models.ImpactPositive,
			Commodities: []string{"Wheat", "Gram", "Mustard"},
			Timestamp:   now.Add(-8 * time.Hour),
			Source:      "Ministry of Agriculture",
		},
		{
			ID:          "news-5",
			Title:       "Weather Alert Issued for Northern States",
			Summary:     "Unseasonal rainfall may affect standing crops in Punjab and Haryana",
			Impact:      models.ImpactNegative,
			Commodities: []string{"Wheat", "Mustard"},
			Timestamp:   now.Add(-10 * time.Hour),
			Source:      "IMD",
		},
	}
}
