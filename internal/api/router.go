// Package api exposes the market session, alerts, watchlist, and ledger over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/mandipulse/internal/ledger"
	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/models"
	"github.com/rewired-gh/mandipulse/internal/storage"
)

// Market is the read side of a running session.
type Market interface {
	Dataset() models.Dataset
	News() []models.NewsItem
	Status() models.FeedStatus
	Subscribe(buffer int) (<-chan models.Dataset, func())
}

// Store is the persistence the handlers use.
type Store interface {
	History(recordID string, limit int) ([]models.PricePoint, error)
	AddAlert(alert *models.PriceAlert) error
	ListAlerts() ([]models.PriceAlert, error)
	DeleteAlert(id string) error
	ListTriggered(limit int) ([]models.TriggeredAlert, error)
	Watch(recordID string, at time.Time) error
	Unwatch(recordID string) error
	Watchlist() ([]string, error)
}

// Handler serves every route.
type Handler struct {
	market Market
	store  Store
	ledger *ledger.Service
	now    func() time.Time
}

// NewRouter builds the engine with recovery, request logging, and CORS.
// Empty corsOrigins allows any origin.
func NewRouter(m Market, store Store, ledgerSvc *ledger.Service, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), corsMiddleware(corsOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "records": len(m.Dataset())})
	})

	h := SetupRoutes(r.Group("/api"), m, store, ledgerSvc)
	r.GET("/ws", h.Stream)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

func SetupRoutes(r *gin.RouterGroup, m Market, store Store, ledgerSvc *ledger.Service) *Handler {
	h := &Handler{market: m, store: store, ledger: ledgerSvc, now: time.Now}

	commodities := r.Group("/commodities")
	{
		commodities.GET("", h.ListCommodities)
		commodities.GET("/:id", h.GetCommodity)
		commodities.GET("/:id/history", h.GetHistory)
		commodities.GET("/:id/technical", h.GetTechnical)
	}

	r.GET("/intelligence", h.GetIntelligence)
	r.GET("/stats", h.GetStats)
	r.GET("/sources", h.GetSources)
	r.GET("/news", h.GetNews)

	alerts := r.Group("/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.POST("", h.CreateAlert)
		alerts.DELETE("/:id", h.DeleteAlert)
		alerts.GET("/triggered", h.ListTriggered)
	}

	watchlist := r.Group("/watchlist")
	{
		watchlist.GET("", h.GetWatchlist)
		watchlist.PUT("/:id", h.AddToWatchlist)
		watchlist.DELETE("/:id", h.RemoveFromWatchlist)
	}

	ledgerGroup := r.Group("/ledger")
	{
		ledgerGroup.GET("", h.ListEntries)
		ledgerGroup.POST("", h.CreateEntry)
		ledgerGroup.DELETE("/:id", h.DeleteEntry)
		ledgerGroup.GET("/summary", h.GetLedgerSummary)
		ledgerGroup.GET("/categories", h.GetLedgerCategories)
		ledgerGroup.GET("/export", h.ExportLedger)
	}

	return h
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		switch {
		case status >= 500:
			logger.Error("HTTP %s %s %d (%v)", c.Request.Method, path, status, time.Since(start))
		case status >= 400:
			logger.Warn("HTTP %s %s %d (%v)", c.Request.Method, path, status, time.Since(start))
		default:
			logger.Debug("HTTP %s %s %d (%v)", c.Request.Method, path, status, time.Since(start))
		}
	}
}

// errBadRequest marks input errors raised by the handlers themselves.
var errBadRequest = errors.New("bad request")

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidEntry), errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
