package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buildsignals/buildsignals/app/database"
	"github.com/buildsignals/buildsignals/app/signal"
	"github.com/buildsignals/buildsignals/app/source"
	"github.com/buildsignals/buildsignals/app/tasks"
)

const (
	defaultListLimit = 50

	// Trending keywords on /stats are extracted from the titles of the
	// highest-engagement stored signals.
	keywordSampleSize   = 200
	maxTrendingKeywords = 10
)

func NewHandler(configCache *source.ConfigCache, signalRepo database.SignalRepository,
	oppRepo database.OpportunityRepository, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		signalRepo:  signalRepo,
		oppRepo:     oppRepo,
		configCache: configCache,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if signalCount, err := h.signalRepo.GetSignalCount(); err == nil {
		health["signals"] = signalCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	sourceStats, err := h.signalRepo.GetSourceStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_source_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["sources"] = sourceStats

	oppStats, err := h.oppRepo.GetOpportunityStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_opportunity_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["opportunities"] = oppStats

	if recent, err := h.signalRepo.ListSignals("", keywordSampleSize); err == nil {
		stats["trending_keywords"] = signal.ExtractKeywords(recent, maxTrendingKeywords)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListOpportunities(c *gin.Context) {
	confidence := signal.Confidence(c.Query("confidence"))
	switch confidence {
	case "", signal.ConfidenceLow, signal.ConfidenceMedium, signal.ConfidenceHigh:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid confidence filter, expected high, medium or low"})
		return
	}

	opportunities, err := h.oppRepo.ListOpportunities(confidence, parseLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "list_opportunities", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"opportunities": opportunities,
		"total":         len(opportunities),
	})
}

func (h *Handler) GetOpportunity(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing opportunity id parameter"})
		return
	}

	opportunity, err := h.oppRepo.GetOpportunity(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_opportunity", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if opportunity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Opportunity not found"})
		return
	}

	c.JSON(http.StatusOK, opportunity)
}

func (h *Handler) ListSignals(c *gin.Context) {
	sourceFilter := signal.Source(c.Query("source"))

	signals, err := h.signalRepo.ListSignals(sourceFilter, parseLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "list_signals", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"signals": signals,
		"total":   len(signals),
	})
}

// APITriggerValidation enqueues a validation run over the current top
// scored signals. The run itself is asynchronous.
func (h *Handler) APITriggerValidation(c *gin.Context) {
	if err := h.scheduler.EnqueueValidation(); err != nil {
		slog.Error("Error enqueueing validation task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue validation task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Validation run enqueued",
		"task": gin.H{
			"type": string(tasks.TaskTypeValidateSignals),
		},
	})
}

// APIGenerateDrafts enqueues tweet-draft generation for the current
// top scored signals.
func (h *Handler) APIGenerateDrafts(c *gin.Context) {
	if err := h.scheduler.EnqueueDrafts(); err != nil {
		slog.Error("Error enqueueing draft task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue draft task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Draft generation enqueued",
		"task": gin.H{
			"type": string(tasks.TaskTypeDraftContent),
		},
	})
}

// APIFetchSource forces an immediate fetch of one configured source.
func (h *Handler) APIFetchSource(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	if err := h.scheduler.EnqueueFetchSource(name); err != nil {
		slog.Error("Error enqueueing fetch task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue fetch task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Fetch task enqueued",
		"task": gin.H{
			"type":   string(tasks.TaskTypeFetchSource),
			"source": name,
		},
	})
}

// APIListSources reports the loaded source configurations and their
// fetch settings.
func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))
	for _, sourceConfig := range configs {
		sources = append(sources, map[string]interface{}{
			"name":             sourceConfig.Name,
			"type":             sourceConfig.Type,
			"enabled":          sourceConfig.Settings.Enabled,
			"max_items":        sourceConfig.Settings.MaxItems,
			"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return limit
}
