package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/mandipulse/internal/analytics"
	"github.com/rewired-gh/mandipulse/internal/ledger"
	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
	"github.com/rewired-gh/mandipulse/internal/storage"
)

type fakeMarket struct {
	mu      sync.Mutex
	dataset models.Dataset
	updates chan models.Dataset
}

func (f *fakeMarket) Dataset() models.Dataset {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dataset
}

func (f *fakeMarket) News() []models.NewsItem {
	return []models.NewsItem{{ID: "news-1", Title: "Monsoon arrives", Impact: models.ImpactPositive}}
}

func (f *fakeMarket) Status() models.FeedStatus {
	return models.FeedStatus{Mode: models.OriginSynthetic, Origin: models.OriginSynthetic}
}

func (f *fakeMarket) Subscribe(int) (<-chan models.Dataset, func()) {
	return f.updates, func() {}
}

func rec(name, region string, cur, prev float64) models.PricedRecord {
	r := models.PricedRecord{
		ID:         market.RecordID(name, region),
		Name:       name,
		Region:     region,
		Market:     region + " APMC",
		Unit:       "₹/quintal",
		Volume:     1000,
		Volatility: models.VolatilityMedium,
	}
	market.Reprice(&r, cur, prev)
	return r
}

type testEnv struct {
	router *gin.Engine
	store  *storage.Storage
	market *fakeMarket
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := storage.New(50, storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := &fakeMarket{
		dataset: models.Dataset{
			rec("Rice", "Punjab", 2900, 2800),
			rec("Rice", "Kerala", 3300, 3350),
			rec("Wheat", "Punjab", 2200, 2200),
		},
		updates: make(chan models.Dataset, 1),
	}
	return &testEnv{
		router: NewRouter(m, store, ledger.NewService(store), nil),
		store:  store,
		market: m,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","records":3}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/nope", nil).Code)
}

func TestListCommodities(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/commodities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[struct {
		Commodities []models.PricedRecord `json:"commodities"`
		Count       int                   `json:"count"`
	}](t, w)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, "Punjab", all.Commodities[0].Region)

	w = env.do(t, http.MethodGet, "/api/commodities?commodity=rice&sort=currentPrice&order=desc&per_kg=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rice := decode[struct {
		Commodities []models.PricedRecord `json:"commodities"`
	}](t, w)
	require.Len(t, rice.Commodities, 2)
	assert.Equal(t, 33.0, rice.Commodities[0].CurrentPrice)
	assert.Equal(t, "₹/kg", rice.Commodities[0].Unit)

	for _, bad := range []string{"?sort=marketCap", "?order=up", "?per_kg=maybe"} {
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/commodities"+bad, nil).Code, bad)
	}
}

func TestGetCommodityAndHistory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/commodities/rice-punjab", nil)
	require.Equal(t, http.StatusOK, w.Code)
	r := decode[models.PricedRecord](t, w)
	assert.Equal(t, "Rice", r.Name)
	assert.Equal(t, "Punjab", r.Region)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/commodities/gold-goa", nil).Code)

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, env.store.RecordPrices(env.market.Dataset(), base.Add(time.Duration(i)*time.Second)))
	}
	w = env.do(t, http.MethodGet, "/api/commodities/rice-punjab/history?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Points []models.PricePoint `json:"points"`
	}](t, w)
	assert.Len(t, hist.Points, 2)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/commodities/rice-punjab/history?limit=-1", nil).Code)

	w = env.do(t, http.MethodGet, "/api/commodities/rice-punjab/technical", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tech := decode[analytics.TechnicalReport](t, w)
	assert.Equal(t, 3, tech.Points)
	assert.Equal(t, 2668.0, tech.Support)
	assert.Nil(t, tech.RSI14)
}

func TestDerivedViews(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/intelligence", nil)
	require.Equal(t, http.StatusOK, w.Code)
	in := decode[analytics.Intelligence](t, w)
	require.Len(t, in.TopGainers, 1)
	assert.Equal(t, "rice-punjab", in.TopGainers[0].ID)
	require.Len(t, in.Arbitrage, 1)
	assert.Equal(t, "Punjab", in.Arbitrage[0].BuyRegion)

	w = env.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[analytics.Stats](t, w)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Unchanged)

	w = env.do(t, http.MethodGet, "/api/sources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"origin":"synthetic"`)

	w = env.do(t, http.MethodGet, "/api/news", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Monsoon arrives")
}

func TestAlerts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/alerts", map[string]any{
		"commodityId": "rice-punjab", "type": "above", "targetPrice": 3000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.PriceAlert](t, w)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)

	bad := []map[string]any{
		{"commodityId": "gold-goa", "type": "above", "targetPrice": 10},
		{"commodityId": "rice-punjab", "type": "sideways", "targetPrice": 10},
		{"commodityId": "rice-punjab", "type": "below", "targetPrice": 0},
	}
	for _, body := range bad {
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/alerts", body).Code, body)
	}

	w = env.do(t, http.MethodGet, "/api/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Alerts []models.PriceAlert `json:"alerts"`
	}](t, w)
	require.Len(t, list.Alerts, 1)

	require.NoError(t, env.store.AddTriggered(models.TriggeredAlert{AlertID: created.ID, CommodityID: "rice-punjab", Commodity: "Rice", Region: "Punjab", Type: models.AlertAbove, TargetPrice: 3000, Price: 3010, TriggeredAt: time.Now()}))
	w = env.do(t, http.MethodGet, "/api/alerts/triggered", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":3010`)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/alerts/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/alerts/"+created.ID, nil).Code)
}

func TestWatchlist(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPut, "/api/watchlist/wheat-punjab", nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPut, "/api/watchlist/wheat-punjab", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/api/watchlist/gold-goa", nil).Code)

	w := env.do(t, http.MethodGet, "/api/watchlist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	wl := decode[struct {
		IDs     []string              `json:"ids"`
		Records []models.PricedRecord `json:"records"`
	}](t, w)
	assert.Equal(t, []string{"wheat-punjab"}, wl.IDs)
	require.Len(t, wl.Records, 1)
	assert.Equal(t, 2200.0, wl.Records[0].CurrentPrice)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/watchlist/wheat-punjab", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/watchlist/wheat-punjab", nil).Code)
}

func TestLedger(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/ledger", map[string]any{
		"date": "2024-06-01", "type": "income", "category": "Crop Sale",
		"description": "Rice sale", "amount": 29000, "quantity": 10, "unit": "quintal",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[models.LedgerEntry](t, w)
	assert.Equal(t, 2024, entry.Date.Year())

	w = env.do(t, http.MethodPost, "/api/ledger", map[string]any{
		"type": "expense", "category": "Transport", "description": "Truck to mandi", "amount": 1500,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/ledger", map[string]any{
		"type": "income", "category": "Seeds", "description": "x", "amount": 1,
	}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/ledger", map[string]any{
		"date": "June 1st", "type": "income", "category": "Subsidy", "description": "x", "amount": 1,
	}).Code)

	w = env.do(t, http.MethodGet, "/api/ledger/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[ledger.Summary](t, w)
	assert.Equal(t, 27500.0, sum.NetProfit)

	w = env.do(t, http.MethodGet, "/api/ledger/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Irrigation")

	w = env.do(t, http.MethodGet, "/api/ledger/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	w = env.do(t, http.MethodGet, "/api/ledger", nil)
	list := decode[struct {
		Entries []models.LedgerEntry `json:"entries"`
	}](t, w)
	require.Len(t, list.Entries, 2)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/ledger/"+entry.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/ledger/"+entry.ID, nil).Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&fakeMarket{}, nil, nil, []string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first StreamMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "dataset", first.Type)
	assert.Len(t, first.Data, 3)

	env.market.updates <- models.Dataset{rec("Onion", "Goa", 1800, 1900)}
	var next StreamMessage
	require.NoError(t, conn.ReadJSON(&next))
	require.Len(t, next.Data, 1)
	assert.Equal(t, "onion-goa", next.Data[0].ID)
}
