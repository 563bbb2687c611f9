package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/mandipulse/internal/analytics"
	"github.com/rewired-gh/mandipulse/internal/models"
	"github.com/rewired-gh/mandipulse/internal/storage"
)

// ListCommodities serves the price table with optional filters:
// region, commodity, q, sort, order (asc|desc), per_kg.
func (h *Handler) ListCommodities(c *gin.Context) {
	q := analytics.Query{
		Region:    c.Query("region"),
		Commodity: c.Query("commodity"),
		Search:    c.Query("q"),
		SortBy:    c.Query("sort"),
	}
	if !analytics.ValidSort(q.SortBy) {
		writeError(c, fmt.Errorf("%w: unsupported sort key %q", errBadRequest, q.SortBy))
		return
	}
	switch order := strings.ToLower(c.DefaultQuery("order", "asc")); order {
	case "asc":
	case "desc":
		q.Desc = true
	default:
		writeError(c, fmt.Errorf("%w: order must be asc or desc", errBadRequest))
		return
	}
	if raw := c.Query("per_kg"); raw != "" {
		perKg, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, fmt.Errorf("%w: per_kg must be a boolean", errBadRequest))
			return
		}
		q.PerKg = perKg
	}

	records := q.Apply(h.market.Dataset())
	c.JSON(http.StatusOK, gin.H{
		"commodities": records,
		"count":       len(records),
		"lastRefresh": h.market.Status().LastRefresh,
	})
}

func (h *Handler) GetCommodity(c *gin.Context) {
	r, ok := h.record(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetHistory returns recorded price points, oldest first. limit=0 returns all retained points.
func (h *Handler) GetHistory(c *gin.Context) {
	r, ok := h.record(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	points, err := h.store.History(r.ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": r.ID, "points": points})
}

func (h *Handler) GetTechnical(c *gin.Context) {
	r, ok := h.record(c)
	if !ok {
		return
	}
	points, err := h.store.History(r.ID, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.Technical(r, points))
}

func (h *Handler) GetIntelligence(c *gin.Context) {
	c.JSON(http.StatusOK, analytics.Analyze(h.market.Dataset()))
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, analytics.MarketStats(h.market.Dataset()))
}

func (h *Handler) GetSources(c *gin.Context) {
	c.JSON(http.StatusOK, h.market.Status())
}

func (h *Handler) GetNews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"news": h.market.News()})
}

// record resolves the :id path parameter against the current Dataset and
// writes a 404 when it is absent.
func (h *Handler) record(c *gin.Context) (models.PricedRecord, bool) {
	id := c.Param("id")
	r, ok := h.market.Dataset().Find(id)
	if !ok {
		writeError(c, fmt.Errorf("commodity %s: %w", id, storage.ErrNotFound))
	}
	return r, ok
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(c, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, key))
		return 0, false
	}
	return n, true
}
