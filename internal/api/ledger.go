package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/mandipulse/internal/ledger"
	"github.com/rewired-gh/mandipulse/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// createEntryRequest accepts the date as YYYY-MM-DD or RFC 3339.
type createEntryRequest struct {
	Date        string           `json:"date"`
	Type        models.EntryType `json:"type"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Quantity    *float64         `json:"quantity"`
	Unit        string           `json:"unit"`
}

func parseEntryDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) ListEntries(c *gin.Context) {
	entries, err := h.ledger.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) CreateEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	date, err := parseEntryDate(req.Date)
	if err != nil {
		writeError(c, fmt.Errorf("%w: invalid date %q", errBadRequest, req.Date))
		return
	}
	entry, err := h.ledger.Add(ledger.NewEntry{
		Date:        date,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) DeleteEntry(c *gin.Context) {
	if err := h.ledger.Delete(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetLedgerSummary(c *gin.Context) {
	sum, err := h.ledger.Summary()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handler) GetLedgerCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"income":  ledger.Categories(models.EntryIncome),
		"expense": ledger.Categories(models.EntryExpense),
		"units":   ledger.Units(),
	})
}

// ExportLedger streams the ledger as an XLSX attachment.
func (h *Handler) ExportLedger(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.ledger.Export(&buf); err != nil {
		writeError(c, err)
		return
	}
	name := fmt.Sprintf("farm-tally-%s.xlsx", h.now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
