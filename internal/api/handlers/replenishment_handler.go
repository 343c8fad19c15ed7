package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modacentro/retail-dashboard/backend-go/internal/domain"
	"github.com/modacentro/retail-dashboard/backend-go/internal/engine"
)

type ReplenishmentHandler struct {
	engine *engine.Engine
}

func NewReplenishmentHandler(eng *engine.Engine) *ReplenishmentHandler {
	return &ReplenishmentHandler{engine: eng}
}

// GetAssessment returns the full evaluation for one product: store×size
// matrix, KPIs, semaphore and insights.
func (h *ReplenishmentHandler) GetAssessment(c *gin.Context) {
	baseCode := strings.TrimSpace(c.Param("code"))
	if baseCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product code is required"})
		return
	}

	opts := engine.Options{
		Window:            parseWindow(c),
		PaceSincePurchase: c.Query("pace_mode") == "since_purchase",
	}

	assessment, err := h.engine.AssessProduct(c.Request.Context(), baseCode, opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrAllSourcesUnavailable):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "failed to assess product", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// GetAlerts runs the batch redistribution detection over the period's top
// sellers and returns the ranked alerts with pagination metadata.
func (h *ReplenishmentHandler) GetAlerts(c *gin.Context) {
	window := parseWindow(c)

	topN, _ := strconv.Atoi(c.DefaultQuery("top", "0"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.engine.BatchAlerts(c.Request.Context(), window, topN, page, pageSize)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAllSourcesUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "failed to detect alerts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// InvalidateStoreMapping drops the validated store/warehouse mapping so the
// next request re-reads the dimension source.
func (h *ReplenishmentHandler) InvalidateStoreMapping(c *gin.Context) {
	if err := h.engine.InvalidateStoreMapping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate cache", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func parseWindow(c *gin.Context) domain.DateRange {
	var window domain.DateRange

	if from := strings.TrimSpace(c.Query("from")); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			window.From = t
		}
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// Inclusive end of day
			window.To = t.Add(24*time.Hour - time.Second)
		}
	}

	return window
}
