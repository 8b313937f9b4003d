package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"golang.org/x/time/rate"

	"deluxxe/internal/metrics"
	"deluxxe/internal/models"
	"deluxxe/internal/services"
	"deluxxe/internal/sponsors"
)

// SeasonHistory is the optional persistent store of season winners.
type SeasonHistory interface {
	PreviousWinners(ctx context.Context, season, eventName string) ([]models.PrizeWinner, error)
	Save(ctx context.Context, result *models.RaffleResult) error
	Ping(ctx context.Context) error
}

// RaffleRequest is the body of POST /api/raffles.
type RaffleRequest struct {
	Season            string `json:"season"`
	EventName         string `json:"eventName"`
	EventID           string `json:"eventId"`
	ConfigurationName string `json:"configurationName"`
	// Options falls back to the server defaults when omitted.
	Options              *services.RaffleOptions        `json:"options"`
	StickerCSV           string                         `json:"stickerCsv"`
	StickerSchemaVersion string                         `json:"stickerSchemaVersion"`
	Prizes               models.PrizeDescriptionRecords `json:"prizes"`
	Sessions             []services.RaceSession         `json:"sessions"`
	PreviousWinners      []models.PrizeWinner           `json:"previousWinners"`
}

// RaffleSummary is one entry of GET /api/raffles.
type RaffleSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Season            string `json:"season"`
	ConfigurationName string `json:"configurationName"`
	ResourceID        string `json:"resourceId"`
	Winners           int    `json:"winners"`
	CreatedAt         string `json:"createdAt"`
}

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	store    *services.ResultStore
	history  SeasonHistory
	defaults services.RaffleOptions
	limiter  *rate.Limiter
}

// NewHTTPHandler creates a new HTTPHandler. history may be nil when no
// database is configured; limiter may be nil to disable rate limiting.
func NewHTTPHandler(store *services.ResultStore, history SeasonHistory, defaults services.RaffleOptions, limiter *rate.Limiter) *HTTPHandler {
	return &HTTPHandler{
		store:    store,
		history:  history,
		defaults: defaults,
		limiter:  limiter,
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.GET("/raffles", h.ListRaffles)
	api.POST("/raffles", h.CreateRaffle)
	api.GET("/raffles/:id", h.GetRaffle)
	api.DELETE("/raffles/:id", h.DeleteRaffle)
	api.GET("/raffles/:id/csv", h.ExportRaffleCSV)
}

// Health reports that the service is up and, when configured, that the
// season history database answers.
func (h *HTTPHandler) Health(c *gin.Context) {
	if h.history != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.history.Ping(ctx); err != nil {
			logger.Errorf("Season history ping failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "service": "deluxxe", "history": false, "error": "season history unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "deluxxe", "history": h.history != nil})
}

// CreateRaffle runs every drawing of an event and stores the result.
func (h *HTTPHandler) CreateRaffle(c *gin.Context) {
	if h.limiter != nil && !h.limiter.Allow() {
		metrics.RecordRaffleRequest("limited")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many raffle requests"})
		return
	}

	var body RaffleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.RecordRaffleRequest("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "errors": []string{err.Error()}})
		return
	}

	parsed, err := sponsors.ParseStickerCSV(strings.NewReader(body.StickerCSV), strings.TrimSpace(body.StickerSchemaVersion))
	if err != nil {
		metrics.RecordRaffleRequest("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sticker sheet", "errors": []string{err.Error()}})
		return
	}
	if parsed.IsEmpty() {
		logger.Warningf("Sticker sheet for %s has no cars, nobody will be eligible", body.EventName)
	}
	stickers, err := sponsors.NewStickerManager(parsed)
	if err != nil {
		metrics.RecordRaffleRequest("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sticker sheet", "errors": []string{err.Error()}})
		return
	}
	logger.Infof("Sticker sheet loaded for %s [schema=%s cars=%d]", body.EventName, stickers.SchemaVersion(), len(parsed.CarToStickerMapping))

	req := h.eventRequest(body)
	if err := req.Validate(); err != nil {
		metrics.RecordRaffleRequest("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid raffle request", "errors": errorMessages(err)})
		return
	}

	if h.history != nil {
		stored, err := h.history.PreviousWinners(c.Request.Context(), req.Season, req.EventName)
		if err != nil {
			logger.Errorf("Failed to load season history: %v", err)
			metrics.RecordRaffleRequest("failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load season history"})
			return
		}
		req.PreviousWinners = mergeWinners(stored, req.PreviousWinners)
	}

	result, err := services.NewEventRaffle(stickers, nil).Run(c.Request.Context(), req)
	if err != nil {
		logger.Errorf("Raffle for %s failed: %v", req.EventName, err)
		metrics.RecordRaffleRequest("failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.store.Put(result)
	if h.history != nil {
		if err := h.history.Save(c.Request.Context(), result); err != nil {
			// the result stays available from memory
			logger.Errorf("Failed to persist raffle %s: %v", result.ID, err)
		}
	}

	logger.Infof("Raffle %s finished for %s: %d winners", result.ID, result.Name, len(result.Winners()))
	metrics.RecordRaffleRequest("success")
	c.JSON(http.StatusCreated, result)
}

// ListRaffles returns a summary of every stored result, newest first.
func (h *HTTPHandler) ListRaffles(c *gin.Context) {
	results := h.store.List()
	summaries := make([]RaffleSummary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, RaffleSummary{
			ID:                r.ID,
			Name:              r.Name,
			Season:            r.Season,
			ConfigurationName: r.ConfigurationName,
			ResourceID:        r.ResourceID,
			Winners:           len(r.Winners()),
			CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, summaries)
}

// GetRaffle returns a stored result.
func (h *HTTPHandler) GetRaffle(c *gin.Context) {
	result, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "raffle not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteRaffle drops a stored result from memory. Persisted season history
// is left untouched.
func (h *HTTPHandler) DeleteRaffle(c *gin.Context) {
	id := c.Param("id")
	if !h.store.Delete(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "raffle not found"})
		return
	}
	logger.Infof("Raffle %s deleted", id)
	c.Status(http.StatusNoContent)
}

// ExportRaffleCSV handles the request to download the winners as a CSV file.
func (h *HTTPHandler) ExportRaffleCSV(c *gin.Context) {
	result, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "raffle not found"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=%s-winners.csv", result.Name))

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"event name", "drawing type", "name", "sponsor", "prize description", "prize unique id"}); err != nil {
		logger.Errorf("Error writing CSV header: %v", err)
		return
	}

	for _, drawing := range result.Drawings {
		winners := make([]models.PrizeWinner, len(drawing.Winners))
		copy(winners, drawing.Winners)
		sort.SliceStable(winners, func(i, j int) bool { return winners[i].Candidate.Name < winners[j].Candidate.Name })

		for _, winner := range winners {
			row := []string{
				result.Name,
				string(drawing.DrawingType),
				winner.Candidate.Name,
				winner.PrizeDescription.SponsorName,
				winner.PrizeDescription.Description,
				winner.ResourceID,
			}
			if err := w.Write(row); err != nil {
				logger.Errorf("Error writing CSV row: %v", err)
				return
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		logger.Errorf("Error flushing CSV writer: %v", err)
	}
}

func (h *HTTPHandler) eventRequest(body RaffleRequest) services.EventRequest {
	opts := h.defaults
	if body.Options != nil {
		opts = *body.Options
	}
	return services.EventRequest{
		Season:            body.Season,
		EventName:         body.EventName,
		EventID:           body.EventID,
		ConfigurationName: body.ConfigurationName,
		Options:           opts,
		Prizes:            body.Prizes,
		Sessions:          body.Sessions,
		PreviousWinners:   body.PreviousWinners,
	}
}

// mergeWinners appends extra to stored, skipping resource ids already present.
func mergeWinners(stored, extra []models.PrizeWinner) []models.PrizeWinner {
	seen := make(map[string]bool, len(stored))
	merged := make([]models.PrizeWinner, 0, len(stored)+len(extra))
	for _, list := range [][]models.PrizeWinner{stored, extra} {
		for _, w := range list {
			if w.ResourceID != "" && seen[w.ResourceID] {
				continue
			}
			seen[w.ResourceID] = true
			merged = append(merged, w)
		}
	}
	return merged
}

// errorMessages flattens joined errors into one message per problem.
func errorMessages(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, errorMessages(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
