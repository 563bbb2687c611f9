package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rewired-gh/mandipulse/internal/models"
)

const defaultTriggeredLimit = 50

type createAlertRequest struct {
	CommodityID string           `json:"commodityId"`
	Type        models.AlertType `json:"type"`
	TargetPrice float64          `json:"targetPrice"`
}

func (h *Handler) ListAlerts(c *gin.Context) {
	alerts, err := h.store.ListAlerts()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// CreateAlert registers an alert on a record of the current Dataset.
func (h *Handler) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	alert := models.PriceAlert{
		ID:          uuid.New().String(),
		CommodityID: req.CommodityID,
		Type:        req.Type,
		TargetPrice: req.TargetPrice,
		IsActive:    true,
		CreatedAt:   h.now(),
	}
	if err := alert.Validate(); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if _, ok := h.market.Dataset().Find(alert.CommodityID); !ok {
		writeError(c, fmt.Errorf("%w: unknown commodity %s", errBadRequest, alert.CommodityID))
		return
	}
	if err := h.store.AddAlert(&alert); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	if err := h.store.DeleteAlert(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListTriggered(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultTriggeredLimit)
	if !ok {
		return
	}
	triggered, err := h.store.ListTriggered(limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggered": triggered})
}

// GetWatchlist returns the watched ids and the records currently present for them.
func (h *Handler) GetWatchlist(c *gin.Context) {
	ids, err := h.store.Watchlist()
	if err != nil {
		writeError(c, err)
		return
	}
	d := h.market.Dataset()
	records := []models.PricedRecord{}
	for _, id := range ids {
		if r, ok := d.Find(id); ok {
			records = append(records, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids, "records": records})
}

func (h *Handler) AddToWatchlist(c *gin.Context) {
	r, ok := h.record(c)
	if !ok {
		return
	}
	if err := h.store.Watch(r.ID, h.now()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveFromWatchlist(c *gin.Context) {
	if err := h.store.Unwatch(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
