package sponsors

import (
	"deluxxe/internal/models"
)

// PrizeLimitTracker enforces the seasonal limit of each prize kind.
// Counts are keyed by the credited candidate name and the prize key.
type PrizeLimitTracker struct {
	limits map[string]int
	counts map[string]map[string]int
}

// NewPrizeLimitTracker reads the seasonal limit of every record.
// A limit of zero means the prize kind is unlimited.
func NewPrizeLimitTracker(records []models.PrizeDescriptionRecord) *PrizeLimitTracker {
	limits := make(map[string]int, len(records))
	for _, r := range records {
		limits[r.Key()] = r.SeasonalLimit
	}
	return &PrizeLimitTracker{
		limits: limits,
		counts: make(map[string]map[string]int),
	}
}

// RecordAwards counts every winner against their prize kind.
func (t *PrizeLimitTracker) RecordAwards(winners []models.PrizeWinner) {
	for _, w := range winners {
		counts, ok := t.counts[w.Candidate.Name]
		if !ok {
			counts = make(map[string]int)
			t.counts[w.Candidate.Name] = counts
		}
		counts[w.PrizeDescription.Key()]++
	}
}

// Count returns how many times the candidate has won the prize kind.
func (t *PrizeLimitTracker) Count(prize models.PrizeDescription, candidate models.Candidate) int {
	return t.counts[candidate.Name][prize.Key()]
}

// IsBelowLimit reports whether the candidate may still win the prize kind.
// A candidate without any record has won nothing and is eligible.
func (t *PrizeLimitTracker) IsBelowLimit(prize models.PrizeDescription, candidate models.Candidate) bool {
	limit := t.limits[prize.Key()]
	if limit == 0 {
		return true
	}
	return t.Count(prize, candidate) < limit
}
