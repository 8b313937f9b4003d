package services

import (
	"testing"

	"deluxxe/internal/models"
	"deluxxe/internal/resources"
	"deluxxe/internal/sponsors"
)

var testSponsors = []string{"Toyo", "Griots", "AAF"}

// newStickers gives every listed car every sticker in testSponsors.
func newStickers(t *testing.T, cars []string, rentals map[string]string) *sponsors.StickerManager {
	t.Helper()
	mapping := make(map[string]map[string]bool, len(cars))
	for _, car := range cars {
		mapping[car] = make(map[string]bool, len(testSponsors))
		for _, s := range testSponsors {
			mapping[car][s] = true
		}
	}
	m, err := sponsors.NewStickerManager(sponsors.StickerParseResult{
		SchemaVersion:       sponsors.SchemaV1_2,
		CarToStickerMapping: mapping,
		CarRentalMap:        rentals,
	})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	return m
}

func candidates(n int) []models.Candidate {
	names := []string{"Alice", "Bob", "Charlie", "Dana", "Eli", "Fran", "Gus", "Hana"}
	out := make([]models.Candidate, n)
	for i := range out {
		out[i] = models.Candidate{Name: names[i], CarNumber: carNumber(i)}
	}
	return out
}

func carNumber(i int) string {
	return string(rune('1' + i))
}

func carsOf(cs []models.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.CarNumber
	}
	return out
}

func prize(sponsor, sku, serial string) models.PrizeDescription {
	return models.PrizeDescription{SponsorName: sponsor, Description: sponsor + " prize", SKU: sku, Serial: serial}
}

func roundBuilder(round int) *resources.Builder {
	return resources.NewBuilder().WithSeason("2025").WithEvent("Test Event", "ev1").WithEventDrawingRound(round)
}

func unlimited() *sponsors.PrizeLimitTracker {
	return sponsors.NewPrizeLimitTracker(nil)
}

// fixedRandom always picks the same index, clamped to the pool.
type fixedRandom int

func (f fixedRandom) IntN(n int) int {
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}
