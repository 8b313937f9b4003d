package services

import (
	"errors"
	"strings"
	"testing"

	"deluxxe/internal/models"
	"deluxxe/internal/resources"
	"deluxxe/internal/sponsors"
)

func drawingConfig() DrawingConfig {
	return DrawingConfig{
		DrawingType:       models.DrawingTypeEvent,
		Season:            "2025",
		ResourceIDBuilder: roundBuilder(1),
	}
}

func TestPrizeDrawing_TwoCandidatesTwoPrizes(t *testing.T) {
	pool := candidates(2)
	d := NewPrizeDrawing(newStickers(t, carsOf(pool), nil), unlimited(), NewSeededRandom(7))

	result, err := d.DrawPrizes(
		[]models.PrizeDescription{prize("Toyo", "tires", "1"), prize("Griots", "kit", "1")},
		pool, nil, drawingConfig())
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	if len(result.Winners) != 2 {
		t.Fatalf("winners = %d, want 2", len(result.Winners))
	}
	if len(result.NotAwarded) != 0 {
		t.Errorf("notAwarded = %d, want 0", len(result.NotAwarded))
	}
	if result.Winners[0].Candidate.Name == result.Winners[1].Candidate.Name {
		t.Errorf("Expected two different winners, both are %s", result.Winners[0].Candidate.Name)
	}
}

func TestPrizeDrawing_OneCandidateTwoPrizes(t *testing.T) {
	pool := candidates(1)
	d := NewPrizeDrawing(newStickers(t, carsOf(pool), nil), unlimited(), NewSeededRandom(7))

	second := prize("Griots", "kit", "1")
	result, err := d.DrawPrizes([]models.PrizeDescription{prize("Toyo", "tires", "1"), second}, pool, nil, drawingConfig())
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	if len(result.Winners) != 1 {
		t.Fatalf("winners = %d, want 1", len(result.Winners))
	}
	if len(result.NotAwarded) != 1 || result.NotAwarded[0] != second {
		t.Errorf("notAwarded = %v, want [%v]", result.NotAwarded, second)
	}
}

func TestPrizeDrawing_StickerRequired(t *testing.T) {
	pool := candidates(4)
	stickers, err := sponsors.NewStickerManager(sponsors.StickerParseResult{
		SchemaVersion: sponsors.SchemaV1_0,
		CarToStickerMapping: map[string]map[string]bool{
			pool[0].CarNumber: {"toyo": false, "griots": true},
			pool[1].CarNumber: {"toyo": true},
			pool[2].CarNumber: {"griots": true}, // toyo column missing
			// pool[3] not in the sheet at all
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	for seed := uint64(1); seed <= 50; seed++ {
		d := NewPrizeDrawing(stickers, unlimited(), NewSeededRandom(seed))
		result, err := d.DrawPrizes([]models.PrizeDescription{prize("Toyo", "tires", "1")}, pool, nil, drawingConfig())
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(result.Winners) != 1 {
			t.Fatalf("seed %d: winners = %d, want 1", seed, len(result.Winners))
		}
		if got := result.Winners[0].Candidate.Name; got != pool[1].Name {
			t.Fatalf("seed %d: winner = %s, only %s carries the sticker", seed, got, pool[1].Name)
		}
	}
}

func TestPrizeDrawing_EligibilityReportsStickerStatus(t *testing.T) {
	pool := candidates(4)
	stickers, err := sponsors.NewStickerManager(sponsors.StickerParseResult{
		SchemaVersion: sponsors.SchemaV1_0,
		CarToStickerMapping: map[string]map[string]bool{
			pool[0].CarNumber: {"toyo": true},
			pool[1].CarNumber: {"toyo": false},
			pool[2].CarNumber: {"griots": true},
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	d := NewPrizeDrawing(stickers, unlimited(), NewSeededRandom(1))
	tires := prize("Toyo", "tires", "1")

	tests := []struct {
		name       string
		candidate  models.Candidate
		wantReason IneligibilityReason
		wantStatus sponsors.StickerStatus
	}{
		{"has sticker", pool[0], IneligibilityNone, sponsors.StickerStatusHasSticker},
		{"no sticker", pool[1], IneligibilityStickerNotPresent, sponsors.StickerStatusNoSticker},
		{"sponsor column missing", pool[2], IneligibilityStickerNotPresent, sponsors.StickerStatusSponsorUnmapped},
		{"car missing from sheet", pool[3], IneligibilityStickerNotPresent, sponsors.StickerStatusCarUnmapped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, status := d.Eligibility(tires, tt.candidate, nil)
			if reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", reason, tt.wantReason)
			}
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
		})
	}

	eligible := d.EligibleCandidates(tires, pool, nil)
	if len(eligible) != 1 || eligible[0] != pool[0] {
		t.Errorf("eligible = %+v, want only %s", eligible, pool[0].Name)
	}
}

func TestPrizeDrawing_NoStickersNoWinner(t *testing.T) {
	pool := candidates(3)
	stickers, _ := sponsors.NewStickerManager(sponsors.StickerParseResult{
		SchemaVersion:       sponsors.SchemaV1_2,
		CarToStickerMapping: map[string]map[string]bool{},
	})
	d := NewPrizeDrawing(stickers, unlimited(), NewSeededRandom(1))

	result, err := d.DrawPrizes([]models.PrizeDescription{prize("Toyo", "tires", "1")}, pool, nil, drawingConfig())
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(result.Winners) != 0 || len(result.NotAwarded) != 1 {
		t.Errorf("winners = %d, notAwarded = %d, want 0 and 1", len(result.Winners), len(result.NotAwarded))
	}
}

func TestPrizeDrawing_PreviousWinnerExcluded(t *testing.T) {
	pool := candidates(2)
	previous := []models.PrizeWinner{{Candidate: pool[0], PrizeDescription: prize("AAF", "filter", "1")}}

	for seed := uint64(1); seed <= 20; seed++ {
		d := NewPrizeDrawing(newStickers(t, carsOf(pool), nil), unlimited(), NewSeededRandom(seed))
		result, err := d.DrawPrizes([]models.PrizeDescription{prize("Toyo", "tires", "1"), prize("Toyo", "tires", "2")}, pool, previous, drawingConfig())
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		for _, w := range result.Winners {
			if w.Candidate.Name == pool[0].Name {
				t.Fatalf("seed %d: previous winner %s won again", seed, pool[0].Name)
			}
		}
		if len(result.Winners) != 1 || len(result.NotAwarded) != 1 {
			t.Fatalf("seed %d: winners = %d, notAwarded = %d, want 1 and 1", seed, len(result.Winners), len(result.NotAwarded))
		}
	}
}

func TestPrizeDrawing_SeasonalLimit(t *testing.T) {
	pool := candidates(1)
	toyo := prize("Toyo", "tires", "1")
	limits := sponsors.NewPrizeLimitTracker([]models.PrizeDescriptionRecord{{Name: "Toyo", SKU: "tires", SeasonalLimit: 1}})
	limits.RecordAwards([]models.PrizeWinner{{Candidate: pool[0], PrizeDescription: toyo}})

	if limits.IsBelowLimit(toyo, pool[0]) {
		t.Fatalf("Expected the Toyo limit to be reached")
	}

	d := NewPrizeDrawing(newStickers(t, carsOf(pool), nil), limits, NewSeededRandom(1))
	result, err := d.DrawPrizes([]models.PrizeDescription{toyo}, pool, nil, drawingConfig())
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(result.Winners) != 0 {
		t.Errorf("winners = %d, want 0", len(result.Winners))
	}
}

func TestPrizeDrawing_ResourceID(t *testing.T) {
	pool := candidates(2)
	d := NewPrizeDrawing(newStickers(t, carsOf(pool), nil), unlimited(), fixedRandom(0))

	result, err := d.DrawPrizes([]models.PrizeDescription{prize("Toyo", "tires", "1"), prize("Toyo", "tires", "2")}, pool, nil, drawingConfig())
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if len(result.Winners) != 2 {
		t.Fatalf("winners = %d, want 2", len(result.Winners))
	}

	want := "season/2025/event/test-event/ev1/drawing/event/round/1/prize/toyo/tires/serial/1"
	if got := result.Winners[0].ResourceID; got != want {
		t.Errorf("ResourceID = %q, want %q", got, want)
	}
	if result.Winners[0].ResourceID == result.Winners[1].ResourceID {
		t.Errorf("Expected distinct resource ids")
	}
	if result.Winners[0].Candidate != pool[0] || result.Winners[1].Candidate != pool[1] {
		t.Errorf("fixed random should pick the first eligible candidate each time")
	}
}

func TestPrizeDrawing_BuilderMisuse(t *testing.T) {
	pool := candidates(1)
	d := NewPrizeDrawing(newStickers(t, carsOf(pool), nil), unlimited(), NewSeededRandom(1))

	cfg := drawingConfig()
	cfg.ResourceIDBuilder = resources.NewBuilder().WithSeason("2025")

	_, err := d.DrawPrizes([]models.PrizeDescription{prize("Toyo", "tires", "1")}, pool, nil, cfg)
	if !errors.Is(err, resources.ErrSegmentOrder) {
		t.Fatalf("err = %v, want %v", err, resources.ErrSegmentOrder)
	}
	if !strings.Contains(err.Error(), "toyo-tires") {
		t.Errorf("Expected the prize key in %q", err.Error())
	}
}

func TestPrizeDrawing_Uniform(t *testing.T) {
	const draws = 30000
	pool := candidates(3)
	d := NewPrizeDrawing(newStickers(t, carsOf(pool), nil), unlimited(), NewSeededRandom(2025))

	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		winner, ok, err := d.DrawPrize(prize("Toyo", "tires", "1"), pool, map[string]bool{}, drawingConfig())
		if err != nil || !ok {
			t.Fatalf("draw %d: ok = %v, err = %v", i, ok, err)
		}
		counts[winner.Candidate.Name]++
	}

	// chi-square with 2 degrees of freedom; 13.8 is the 0.001 critical value
	expected := float64(draws) / float64(len(pool))
	var chi2 float64
	for _, c := range pool {
		diff := float64(counts[c.Name]) - expected
		chi2 += diff * diff / expected
	}
	if chi2 > 13.8 {
		t.Errorf("chi-square = %.2f, counts = %v", chi2, counts)
	}
}
