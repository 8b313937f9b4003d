package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"deluxxe/internal/models"
	"deluxxe/internal/services"
)

const stickerSheet = "Number,Owner,Listed Color,Email 1,Email 2,Is A Rental,_425,AAF,Bimmerworld,Griots,Redline,RoR,Toyo,Proformance,Alpinestars\n" +
	"1,Alice,Red,,,n,n,n,n,n,n,n,y,n,n\n" +
	"2,Bob,Blue,,,n,n,n,n,n,n,n,y,n,n\n"

type fakeHistory struct {
	previous []models.PrizeWinner
	saved    []*models.RaffleResult
	pingErr  error
}

func (f *fakeHistory) PreviousWinners(ctx context.Context, season, eventName string) ([]models.PrizeWinner, error) {
	return f.previous, nil
}

func (f *fakeHistory) Save(ctx context.Context, result *models.RaffleResult) error {
	f.saved = append(f.saved, result)
	return nil
}

func (f *fakeHistory) Ping(ctx context.Context) error {
	return f.pingErr
}

func setupRouter(history SeasonHistory, limiter *rate.Limiter) (*gin.Engine, *services.ResultStore) {
	gin.SetMode(gin.TestMode)
	store := services.NewResultStore()
	handler := NewHTTPHandler(store, history, services.RaffleOptions{MaxRounds: 3, FilterDriversWithWinningHistory: true}, limiter)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router, store
}

func raffleBody(t *testing.T, mutate func(map[string]any)) *bytes.Buffer {
	t.Helper()
	body := map[string]any{
		"season":            "2025",
		"eventName":         "Summer Sprint",
		"eventId":           "ev9",
		"configurationName": "default",
		"stickerCsv":        stickerSheet,
		"prizes": map[string]any{
			"perRacePrizes": []map[string]any{
				{"name": "Toyo", "description": "Set of tires", "count": 1, "sku": "tires"},
			},
		},
		"sessions": []map[string]any{
			{"name": "Race 1", "id": "r1", "candidates": []map[string]string{
				{"carNumber": "1", "name": "Alice"},
				{"carNumber": "2", "name": "Bob"},
			}},
		},
	}
	if mutate != nil {
		mutate(body)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	return bytes.NewBuffer(raw)
}

func TestCreateAndExportRaffle(t *testing.T) {
	history := &fakeHistory{previous: []models.PrizeWinner{{
		Candidate:        models.Candidate{Name: "Alice", CarNumber: "1"},
		PrizeDescription: models.PrizeDescription{SponsorName: "AAF", SKU: "filter", Serial: "1"},
		ResourceID:       "season/2025/event/spring/ev1/drawing/event/round/1/prize/aaf/filter/serial/1",
	}}}
	router, _ := setupRouter(history, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/raffles", raffleBody(t, nil))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var result models.RaffleResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	winners := result.Winners()
	if len(winners) != 1 || winners[0].Candidate.Name != "Bob" {
		t.Fatalf("winners = %+v, want only Bob", winners)
	}
	if len(history.saved) != 1 {
		t.Errorf("saved = %d, want 1", len(history.saved))
	}

	t.Run("get", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/raffles/"+result.ID, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/raffles", nil)
		router.ServeHTTP(w, req)

		var summaries []RaffleSummary
		if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(summaries) != 1 || summaries[0].Winners != 1 || summaries[0].Name != "summer-sprint" {
			t.Errorf("summaries = %+v", summaries)
		}
	})

	t.Run("csv", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/raffles/"+result.ID+"/csv", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		body := w.Body.String()
		if !strings.HasPrefix(body, "\xef\xbb\xbf") {
			t.Fatalf("Expected a UTF-8 BOM")
		}
		rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(body, "\xef\xbb\xbf"))).ReadAll()
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("rows = %d, want 2", len(rows))
		}
		want := []string{"summer-sprint", "Race", "Bob", "Toyo", "Set of tires", winners[0].ResourceID}
		for i := range want {
			if rows[1][i] != want[i] {
				t.Errorf("column %d = %q, want %q", i, rows[1][i], want[i])
			}
		}
	})
}

func TestGetRaffleNotFound(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	for _, path := range []string{"/api/raffles/nope", "/api/raffles/nope/csv"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}

func TestCreateRaffleValidation(t *testing.T) {
	router, store := setupRouter(nil, nil)

	body := raffleBody(t, func(b map[string]any) {
		b["season"] = ""
		b["prizes"] = map[string]any{
			"perRacePrizes": []map[string]any{
				{"name": "Toyo", "description": "Tires", "count": 0, "sku": "tires"},
				{"name": "Toyo", "description": "Tires", "count": 1, "sku": "tires"},
			},
		}
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/raffles", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var resp struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	// missing season, non-positive count, duplicate sku
	if len(resp.Errors) != 3 {
		t.Errorf("errors = %v, want 3 entries", resp.Errors)
	}
	if len(store.List()) != 0 {
		t.Errorf("Expected nothing stored")
	}
}

func TestCreateRaffleBadStickerSheet(t *testing.T) {
	router, _ := setupRouter(nil, nil)

	body := raffleBody(t, func(b map[string]any) {
		b["stickerCsv"] = "Car,Who\n1,Alice\n"
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/raffles", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCreateRaffleRateLimited(t *testing.T) {
	router, _ := setupRouter(nil, rate.NewLimiter(0, 1))

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/raffles", raffleBody(t, nil))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		codes[i] = w.Code
	}

	if codes[0] != http.StatusCreated || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [201 429]", codes)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		history    SeasonHistory
		wantStatus int
		wantBody   string
	}{
		{"without history", nil, http.StatusOK, `"history":false`},
		{"history reachable", &fakeHistory{}, http.StatusOK, `"history":true`},
		{"history unreachable", &fakeHistory{pingErr: errors.New("connection refused")}, http.StatusServiceUnavailable, `"status":"degraded"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(tt.history, nil)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/health", nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDeleteRaffle(t *testing.T) {
	router, store := setupRouter(nil, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/raffles", raffleBody(t, nil))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var result models.RaffleResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodDelete, "/api/raffles/"+result.ID, nil)
		router.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNotFound {
		t.Errorf("codes = %v, want [204 404]", codes)
	}
	if _, ok := store.Get(result.ID); ok {
		t.Errorf("Expected %s to be gone from the store", result.ID)
	}
}
