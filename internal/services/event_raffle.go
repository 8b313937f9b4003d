package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"deluxxe/internal/models"
	"deluxxe/internal/resources"
	"deluxxe/internal/sponsors"
)

var (
	ErrSeasonRequired    = errors.New("season is required")
	ErrEventNameRequired = errors.New("event name is required")
	ErrEventIDRequired   = errors.New("event id is required")
	ErrDuplicateSession  = errors.New("duplicate race session")
)

// CandidateRecord is a race participant as reported by the timing results,
// already filtered to starters of the right class.
type CandidateRecord struct {
	CarNumber string `json:"carNumber"`
	Name      string `json:"name"`
}

// RaceSession is one race of the event and its candidates.
type RaceSession struct {
	Name       string            `json:"name"`
	ID         string            `json:"id"`
	Candidates []CandidateRecord `json:"candidates"`
}

// EventRequest holds everything needed to run the raffles of one event.
type EventRequest struct {
	Season            string                         `json:"season"`
	EventName         string                         `json:"eventName"`
	EventID           string                         `json:"eventId"`
	ConfigurationName string                         `json:"configurationName"`
	Options           RaffleOptions                  `json:"options"`
	Prizes            models.PrizeDescriptionRecords `json:"prizes"`
	Sessions          []RaceSession                  `json:"sessions"`
	// PreviousWinners are the season's winners from earlier events.
	PreviousWinners []models.PrizeWinner `json:"previousWinners"`
}

// Validate reports every problem with the request at once.
func (r EventRequest) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Season) == "" {
		errs = append(errs, ErrSeasonRequired)
	}
	if strings.TrimSpace(r.EventName) == "" {
		errs = append(errs, ErrEventNameRequired)
	}
	if strings.TrimSpace(r.EventID) == "" {
		errs = append(errs, ErrEventIDRequired)
	}

	seen := make(map[string]bool, len(r.Sessions))
	for i, s := range r.Sessions {
		key := resources.SessionKey(s.Name, s.ID)
		if seen[key] {
			errs = append(errs, fmt.Errorf("%w: sessions[%d] name=%q id=%q", ErrDuplicateSession, i, s.Name, s.ID))
		}
		seen[key] = true
	}

	if err := sponsors.ValidatePrizeRecords(r.Prizes); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EventRaffle runs the per-race drawings of an event followed by the
// event-wide drawing.
type EventRaffle struct {
	stickers *sponsors.StickerManager
	raffles  *RaffleService
}

// NewEventRaffle creates an EventRaffle over a sticker sheet.
func NewEventRaffle(stickers *sponsors.StickerManager, newRandom RandomFactory) *EventRaffle {
	return &EventRaffle{
		stickers: stickers,
		raffles:  NewRaffleService(stickers, newRandom),
	}
}

// ResolveCandidates credits each participant's car to the right name and
// logs cars the sticker sheet does not know about.
func (e *EventRaffle) ResolveCandidates(records []CandidateRecord, allowRentersToWin bool) []models.Candidate {
	candidates := make([]models.Candidate, 0, len(records))
	for _, r := range records {
		carNumber := strings.TrimSpace(r.CarNumber)
		if carNumber == "" {
			logger.Warningf("Skipping candidate %q without a car number", r.Name)
			continue
		}
		if !e.stickers.IsMapped(carNumber) {
			logger.Warningf("Car %s (%s) is missing from the sticker map", carNumber, r.Name)
		}
		name := e.stickers.ResolveCandidateName(carNumber, strings.TrimSpace(r.Name), allowRentersToWin)
		if e.stickers.IsRental(carNumber) {
			logger.Infof("Car %s is a rental driven by %s, credited to %s", carNumber, r.Name, name)
		}
		candidates = append(candidates, models.Candidate{Name: name, CarNumber: carNumber})
	}
	return candidates
}

// Run validates the request and draws every race session, then the event.
func (e *EventRaffle) Run(ctx context.Context, req EventRequest) (*models.RaffleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	opts := req.Options
	limits := sponsors.NewPrizeLimitTracker(req.Prizes.All())
	limits.RecordAwards(req.PreviousWinners)

	eventBuilder := resources.NewBuilder().WithSeason(req.Season).WithEvent(req.EventName, req.EventID)
	eventResourceID, err := eventBuilder.Build()
	if err != nil {
		return nil, err
	}

	var (
		drawings        []models.DrawingResult
		weekendWinners  []models.PrizeWinner
		eventCandidates []models.Candidate
		seenCars        = make(map[string]bool)
	)

	for i, session := range req.Sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates := e.ResolveCandidates(session.Candidates, opts.AllowRentersToWin)
		for _, c := range candidates {
			if !seenCars[c.CarNumber] {
				seenCars[c.CarNumber] = true
				eventCandidates = append(eventCandidates, c)
			}
		}

		prizes, err := GeneratePrizeDescriptions(req.Prizes.PerRacePrizes, len(candidates))
		if err != nil {
			return nil, err
		}

		result, err := e.raffles.ExecuteRaffle(
			RaffleConfig{RaffleOptions: withSeedOffset(opts, i), DrawingType: models.DrawingTypeRace, Season: req.Season},
			prizes,
			candidates,
			PreviousWinners{Season: req.PreviousWinners, Weekend: weekendWinners},
			limits,
			func(round int) *resources.Builder {
				return eventBuilder.Copy().WithRaceDrawingRound(session.Name, session.ID, round)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("race session %q: %w", session.Name, err)
		}
		logger.Infof("Session %s: %d won, %d not awarded", session.Name, len(result.Winners), len(result.NotAwarded))

		drawings = append(drawings, *result)
		weekendWinners = append(weekendWinners, result.Winners...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eventPrizes, err := GeneratePrizeDescriptions(req.Prizes.PerEventPrizes, len(eventCandidates))
	if err != nil {
		return nil, err
	}
	eventResult, err := e.raffles.ExecuteRaffle(
		RaffleConfig{RaffleOptions: withSeedOffset(opts, len(req.Sessions)), DrawingType: models.DrawingTypeEvent, Season: req.Season},
		eventPrizes,
		eventCandidates,
		PreviousWinners{Season: req.PreviousWinners, Weekend: weekendWinners},
		limits,
		func(round int) *resources.Builder {
			return eventBuilder.Copy().WithEventDrawingRound(round)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("event drawing: %w", err)
	}
	logger.Infof("Event: %d won, %d not awarded", len(eventResult.Winners), len(eventResult.NotAwarded))
	drawings = append(drawings, *eventResult)

	return &models.RaffleResult{
		ID:                uuid.NewString(),
		Name:              resources.NormalizeEventName(req.EventName),
		Season:            req.Season,
		ConfigurationName: req.ConfigurationName,
		ResourceID:        eventResourceID,
		Drawings:          drawings,
		Representation:    sponsors.Representation(e.stickers, eventCandidates),
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// withSeedOffset gives every drawing of a seeded event its own stream.
func withSeedOffset(opts RaffleOptions, offset int) RaffleOptions {
	if opts.RandomSeed != 0 {
		opts.RandomSeed += uint64(offset)
	}
	return opts
}
