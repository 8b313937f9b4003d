package services

import (
	"fmt"

	"github.com/google/logger"

	"deluxxe/internal/metrics"
	"deluxxe/internal/models"
	"deluxxe/internal/resources"
	"deluxxe/internal/sponsors"
)

// EligibilityResolver answers whether a car carries a sponsor's sticker.
type EligibilityResolver interface {
	HasSticker(carNumber, sponsorName string) sponsors.StickerStatus
}

// LimitChecker answers whether a candidate may still win a prize kind.
type LimitChecker interface {
	IsBelowLimit(prize models.PrizeDescription, candidate models.Candidate) bool
}

// IneligibilityReason says why a candidate was left out of a prize's pool.
type IneligibilityReason int

const (
	IneligibilityNone IneligibilityReason = iota
	IneligibilityStickerNotPresent
	IneligibilityPreviouslyWon
	IneligibilitySeasonalLimitReached
)

func (r IneligibilityReason) String() string {
	switch r {
	case IneligibilityNone:
		return "none"
	case IneligibilityStickerNotPresent:
		return "sticker-not-present"
	case IneligibilityPreviouslyWon:
		return "previously-won"
	case IneligibilitySeasonalLimitReached:
		return "seasonal-limit-reached"
	}
	return fmt.Sprintf("ineligibility(%d)", int(r))
}

// DrawingConfig describes the round being drawn.
type DrawingConfig struct {
	DrawingType models.DrawingType
	Season      string
	// ResourceIDBuilder must already hold season, event and drawing segments.
	ResourceIDBuilder *resources.Builder
}

// RoundResult is the outcome of a single pass over a prize catalogue.
type RoundResult struct {
	Winners    []models.PrizeWinner
	NotAwarded []models.PrizeDescription
}

// PrizeDrawing draws one round: every prize in catalogue order, one winner
// each, picked uniformly from the candidates still eligible for it.
type PrizeDrawing struct {
	stickers EligibilityResolver
	limits   LimitChecker
	random   RandomSource
}

// NewPrizeDrawing wires a drawing to its collaborators.
func NewPrizeDrawing(stickers EligibilityResolver, limits LimitChecker, random RandomSource) *PrizeDrawing {
	return &PrizeDrawing{
		stickers: stickers,
		limits:   limits,
		random:   random,
	}
}

// DrawPrizes draws every description once. Winners of earlier prizes in the
// round are excluded from later ones. A prize nobody is eligible for goes to
// NotAwarded.
func (d *PrizeDrawing) DrawPrizes(descriptions []models.PrizeDescription, candidates []models.Candidate, previousWinners []models.PrizeWinner, cfg DrawingConfig) (RoundResult, error) {
	result := RoundResult{
		Winners:    make([]models.PrizeWinner, 0, len(descriptions)),
		NotAwarded: make([]models.PrizeDescription, 0),
	}

	won := make(map[string]bool, len(previousWinners)+len(descriptions))
	for _, w := range previousWinners {
		won[w.Candidate.Name] = true
	}

	logger.Infof("Start drawing %d prizes for %d candidates [type=%s]", len(descriptions), len(candidates), cfg.DrawingType)
	for _, description := range descriptions {
		winner, ok, err := d.DrawPrize(description, candidates, won, cfg)
		if err != nil {
			return RoundResult{}, err
		}
		if !ok {
			logger.Infof("No winner found for [prize=%s serial=%s]", description.Key(), description.Serial)
			result.NotAwarded = append(result.NotAwarded, description)
			continue
		}

		logger.Infof("Winner found for [prize=%s serial=%s] [name=%s]", description.Key(), description.Serial, winner.Candidate.Name)
		won[winner.Candidate.Name] = true
		result.Winners = append(result.Winners, winner)
	}

	return result, nil
}

// DrawPrize draws a single prize. ok is false when no candidate is eligible.
func (d *PrizeDrawing) DrawPrize(description models.PrizeDescription, candidates []models.Candidate, won map[string]bool, cfg DrawingConfig) (models.PrizeWinner, bool, error) {
	eligible := d.EligibleCandidates(description, candidates, won)
	if len(eligible) == 0 {
		return models.PrizeWinner{}, false, nil
	}

	candidate := eligible[d.random.IntN(len(eligible))]

	resourceID, err := cfg.ResourceIDBuilder.Copy().
		WithPrize(description.SponsorName, description.SKU).
		WithSerial(description.Serial).
		Build()
	if err != nil {
		return models.PrizeWinner{}, false, fmt.Errorf("failed to build resource id for %s: %w", description.Key(), err)
	}

	return models.PrizeWinner{
		PrizeDescription: description,
		Candidate:        candidate,
		ResourceID:       resourceID,
	}, true, nil
}

// EligibleCandidates filters candidates for one prize, keeping input order.
// Cars or sponsors missing from the sticker sheet are reported as data
// quality warnings.
func (d *PrizeDrawing) EligibleCandidates(description models.PrizeDescription, candidates []models.Candidate, won map[string]bool) []models.Candidate {
	var eligible []models.Candidate
	for _, c := range candidates {
		reason, status := d.Eligibility(description, c, won)
		if reason == IneligibilityNone {
			eligible = append(eligible, c)
			continue
		}

		switch status {
		case sponsors.StickerStatusCarUnmapped, sponsors.StickerStatusSponsorUnmapped:
			logger.Warningf("Candidate not eligible [name=%s car=%s] [prize=%s] [reason=%s] [sticker=%s]", c.Name, c.CarNumber, description.Key(), reason, status)
			metrics.RecordStickerDataIssue(status.String())
		default:
			logger.Infof("Candidate not eligible [name=%s car=%s] [prize=%s] [reason=%s] [sticker=%s]", c.Name, c.CarNumber, description.Key(), reason, status)
		}
	}
	return eligible
}

// Eligibility returns why a candidate cannot win the prize, if at all,
// together with the sticker lookup that decided it.
func (d *PrizeDrawing) Eligibility(description models.PrizeDescription, c models.Candidate, won map[string]bool) (IneligibilityReason, sponsors.StickerStatus) {
	status := d.stickers.HasSticker(c.CarNumber, description.SponsorName)
	if status != sponsors.StickerStatusHasSticker {
		return IneligibilityStickerNotPresent, status
	}
	if won[c.Name] {
		return IneligibilityPreviouslyWon, status
	}
	if !d.limits.IsBelowLimit(description, c) {
		return IneligibilitySeasonalLimitReached, status
	}
	return IneligibilityNone, status
}
