package services

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/logger"

	"deluxxe/internal/metrics"
	"deluxxe/internal/models"
	"deluxxe/internal/resources"
)

// DefaultMaxRounds is used when a raffle does not set MaxRounds.
const DefaultMaxRounds = 5

// RaffleOptions are the policy switches of a raffle.
type RaffleOptions struct {
	MaxRounds                  int  `json:"maxRounds"`
	ClearHistoryIfNoCandidates bool `json:"clearHistoryIfNoCandidates"`
	AllowRentersToWin          bool `json:"allowRentersToWin"`
	// FilterDriversWithWinningHistory excludes winners from earlier events
	// of the season.
	FilterDriversWithWinningHistory bool `json:"filterDriversWithWinningHistory"`
	// LimitOnePrizePerDriverPerWeekend excludes winners of earlier drawings
	// of the same event.
	LimitOnePrizePerDriverPerWeekend bool `json:"limitOnePrizePerDriverPerWeekend"`
	// RandomSeed makes the raffle reproducible; zero draws a seed from
	// crypto/rand.
	RandomSeed uint64 `json:"randomSeed,omitempty"`
}

// RaffleConfig configures one multi-round drawing.
type RaffleConfig struct {
	RaffleOptions
	DrawingType models.DrawingType
	Season      string
}

// PreviousWinners splits winning history by scope.
type PreviousWinners struct {
	// Season holds winners from earlier events of the season.
	Season []models.PrizeWinner
	// Weekend holds winners from earlier drawings of this event.
	Weekend []models.PrizeWinner
}

func (p PreviousWinners) exclusions(opts RaffleOptions) []models.PrizeWinner {
	var out []models.PrizeWinner
	if opts.FilterDriversWithWinningHistory {
		out = append(out, p.Season...)
	}
	if opts.LimitOnePrizePerDriverPerWeekend {
		out = append(out, p.Weekend...)
	}
	return out
}

// LimitTracker is a LimitChecker that also learns from new awards.
type LimitTracker interface {
	LimitChecker
	RecordAwards(winners []models.PrizeWinner)
}

// RaffleService runs a prize catalogue through rounds of PrizeDrawing until
// every prize is awarded or the round budget is spent.
type RaffleService struct {
	stickers  EligibilityResolver
	newRandom RandomFactory
}

// NewRaffleService creates a RaffleService. A nil factory uses NewSeededRandom.
func NewRaffleService(stickers EligibilityResolver, newRandom RandomFactory) *RaffleService {
	if newRandom == nil {
		newRandom = NewSeededRandom
	}
	return &RaffleService{
		stickers:  stickers,
		newRandom: newRandom,
	}
}

// ExecuteRaffle shuffles the catalogue once and draws it over up to MaxRounds
// rounds. Prizes left over after a round roll into the next one; prizes still
// left after the last round are reported as not awarded.
//
// builderFor returns the resource id builder for a round, numbered from 1.
func (s *RaffleService) ExecuteRaffle(
	cfg RaffleConfig,
	prizes []models.PrizeDescription,
	candidates []models.Candidate,
	previous PreviousWinners,
	limits LimitTracker,
	builderFor func(round int) *resources.Builder,
) (*models.DrawingResult, error) {
	start := time.Now()

	seed := cfg.RandomSeed
	if seed == 0 {
		var err error
		if seed, err = CryptoSeed(); err != nil {
			return nil, err
		}
	}
	random := s.newRandom(seed)

	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	catalogue := slices.Clone(prizes)
	Shuffle(random, catalogue)

	drawing := NewPrizeDrawing(s.stickers, limits, random)
	history := previous.exclusions(cfg.RaffleOptions)
	result := &models.DrawingResult{
		Winners:     make([]models.PrizeWinner, 0, len(catalogue)),
		DrawingType: cfg.DrawingType,
		RandomSeed:  seed,
	}

	logger.Infof("Starting drawing rounds [type=%s] [prizes=%d] [candidates=%d] [seed=%d]", cfg.DrawingType, len(catalogue), len(candidates), seed)
	rounds := 0
	for round := 1; round <= maxRounds; round++ {
		if len(catalogue) == 0 {
			logger.Infof("Awarded all prizes after %d rounds", rounds)
			break
		}
		rounds = round

		roundResult, err := drawing.DrawPrizes(catalogue, candidates, history, DrawingConfig{
			DrawingType:       cfg.DrawingType,
			Season:            cfg.Season,
			ResourceIDBuilder: builderFor(round),
		})
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		logger.Infof("Round %d: %d won, %d not awarded", round, len(roundResult.Winners), len(roundResult.NotAwarded))

		result.Winners = append(result.Winners, roundResult.Winners...)
		limits.RecordAwards(roundResult.Winners)

		if len(roundResult.Winners) == 0 && cfg.ClearHistoryIfNoCandidates {
			logger.Infof("Round %d awarded nothing, clearing winner history", round)
			history = nil
		} else {
			history = append(history, roundResult.Winners...)
		}

		catalogue = roundResult.NotAwarded
	}

	result.NotAwarded = catalogue
	if result.NotAwarded == nil {
		result.NotAwarded = []models.PrizeDescription{}
	}

	metrics.RecordDrawing(string(cfg.DrawingType), time.Since(start).Seconds(), rounds, len(result.Winners), len(result.NotAwarded))
	return result, nil
}
