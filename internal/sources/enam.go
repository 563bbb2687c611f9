package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// EnamSource reads live prices from eNAM, trying each endpoint in order.
type EnamSource struct {
	client    *resty.Client
	endpoints []string
	now       func() time.Time
}

type enamItem struct {
	CommodityName  string    `json:"commodityName"`
	Commodity      string    `json:"commodity"`
	Name           string    `json:"name"`
	CurrentPrice   flexFloat `json:"currentPrice"`
	Price          flexFloat `json:"price"`
	ModalPrice     flexFloat `json:"modal_price"`
	PreviousPrice  flexFloat `json:"previousPrice"`
	PrevPrice      flexFloat `json:"prev_price"`
	TradedQuantity flexFloat `json:"tradedQuantity"`
	Volume         flexFloat `json:"volume"`
	Arrivals       flexFloat `json:"arrivals"`
	Turnover       flexFloat `json:"turnover"`
	StateName      string    `json:"stateName"`
	State          string    `json:"state"`
	MarketName     string    `json:"marketName"`
	Market         string    `json:"market"`
	LastUpdated    string    `json:"lastUpdated"`
	Date           string    `json:"date"`
	Volatility     string    `json:"volatility"`
	Unit           string    `json:"unit"`
}

// NewEnamSource creates an eNAM client over the given endpoints.
func NewEnamSource(endpoints []string, cfg ClientConfig) *EnamSource {
	return &EnamSource{client: newClient(cfg), endpoints: endpoints, now: time.Now}
}

func (s *EnamSource) Name() string { return "eNAM" }

// FetchRecords returns the records of the first endpoint that answers 2xx.
func (s *EnamSource) FetchRecords(ctx context.Context) ([]models.PricedRecord, error) {
	var errs []error
	for _, endpoint := range s.endpoints {
		body, err := get(ctx, s.client, endpoint, nil)
		if err != nil {
			logger.Debug("eNAM endpoint %s failed: %v", endpoint, err)
			errs = append(errs, err)
			continue
		}
		return parseEnam(body, s.now())
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("enam: no endpoints configured: %w", ErrUnavailable)
	}
	return nil, fmt.Errorf("enam: all endpoints failed: %w", errors.Join(errs...))
}

func parseEnam(body []byte, now time.Time) ([]models.PricedRecord, error) {
	raw, ok := unwrapRecords(body, "prices", "data")
	if !ok {
		return nil, fmt.Errorf("enam: %w", ErrMalformedPayload)
	}

	records := make([]models.PricedRecord, 0, len(raw))
	for _, item := range raw {
		var it enamItem
		if err := json.Unmarshal(item, &it); err != nil {
			continue
		}
		price := firstNonZero(it.CurrentPrice, it.Price, it.ModalPrice)
		if price <= 0 {
			continue
		}
		name := firstNonEmpty(it.CommodityName, it.Commodity, it.Name, "Unknown")
		mkt := firstNonEmpty(it.MarketName, it.Market, "eNAM")

		r := models.PricedRecord{
			ID:            "enam-" + market.RecordID(name, mkt),
			Name:          name,
			CurrentPrice:  market.Round2(price),
			PreviousPrice: market.Round2(firstNonZero(it.PreviousPrice, it.PrevPrice)),
			Volume:        int(firstNonZero(it.TradedQuantity, it.Volume, it.Arrivals)),
			MarketCap:     int(it.Turnover),
			Region:        firstNonEmpty(it.StateName, it.State, "Unknown"),
			Market:        mkt,
			LastUpdated:   parseDate(firstNonEmpty(it.LastUpdated, it.Date), now),
			Volatility:    parseVolatility(it.Volatility),
			Category:      CategoryFor(name),
			Unit:          it.Unit,
		}
		enrich(&r)
		records = append(records, r)
	}
	return records, nil
}

func parseVolatility(s string) models.Volatility {
	switch v := models.Volatility(s); v {
	case models.VolatilityHigh, models.VolatilityMedium, models.VolatilityLow:
		return v
	}
	return models.VolatilityMedium
}
