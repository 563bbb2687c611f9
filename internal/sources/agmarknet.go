package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// AgmarknetSource reads mandi modal prices from AGMARKNET.
type AgmarknetSource struct {
	client    *resty.Client
	url       string
	commodity string
	now       func() time.Time
}

type agmarknetItem struct {
	Commodity  string    `json:"commodity"`
	ModalPrice flexFloat `json:"modal_price"`
	Price      flexFloat `json:"price"`
	State      string    `json:"state"`
	Market     string    `json:"market"`
	Arrivals   flexFloat `json:"arrivals"`
	PriceDate  string    `json:"price_date"`
}

// NewAgmarknetSource creates an AGMARKNET client querying the given commodity ("Rice" when empty).
func NewAgmarknetSource(url, commodity string, cfg ClientConfig) *AgmarknetSource {
	if commodity == "" {
		commodity = "Rice"
	}
	return &AgmarknetSource{client: newClient(cfg), url: url, commodity: commodity, now: time.Now}
}

func (s *AgmarknetSource) Name() string { return "AGMARKNET" }

// FetchRecords queries the last seven days of prices across all states.
func (s *AgmarknetSource) FetchRecords(ctx context.Context) ([]models.PricedRecord, error) {
	now := s.now()
	from := now.AddDate(0, 0, -7).Format("2006-01-02")
	to := now.Format("2006-01-02")
	body, err := get(ctx, s.client, s.url, map[string]string{
		"Tx_Commodity": s.commodity,
		"Tx_State":     "All",
		"Tx_District":  "All",
		"Tx_Market":    "All",
		"DateFrom":     from,
		"DateTo":       to,
		"Fr_Date":      from,
		"To_Date":      to,
	})
	if err != nil {
		return nil, err
	}
	return parseAgmarknet(body, now)
}

func parseAgmarknet(body []byte, now time.Time) ([]models.PricedRecord, error) {
	raw, ok := unwrapRecords(body, "records")
	if !ok {
		return nil, fmt.Errorf("agmarknet: %w", ErrMalformedPayload)
	}

	// The query spans several days; keep only the latest row per commodity and market.
	records := make([]models.PricedRecord, 0, len(raw))
	latest := make(map[string]int, len(raw))
	for _, item := range raw {
		var it agmarknetItem
		if err := json.Unmarshal(item, &it); err != nil {
			continue
		}
		price := firstNonZero(it.ModalPrice, it.Price)
		if price <= 0 {
			continue
		}
		name := firstNonEmpty(it.Commodity, "Unknown")
		state := firstNonEmpty(it.State, "Unknown")
		mkt := firstNonEmpty(it.Market, "Unknown APMC")

		r := models.PricedRecord{
			ID:           "agmarknet-" + market.RecordID(name, mkt),
			Name:         name,
			CurrentPrice: market.Round2(price),
			Volume:       int(it.Arrivals),
			Region:       state,
			Market:       mkt,
			LastUpdated:  parseDate(it.PriceDate, now),
			Category:     CategoryFor(name),
		}
		enrich(&r)
		if i, ok := latest[r.ID]; ok {
			if r.LastUpdated.After(records[i].LastUpdated) {
				records[i] = r
			}
			continue
		}
		latest[r.ID] = len(records)
		records = append(records, r)
	}
	return records, nil
}
