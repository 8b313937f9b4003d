package repository

import (
	"context"
	"fmt"

	"github.com/google/logger"
	"github.com/jmoiron/sqlx"

	"deluxxe/internal/models"
)

// SeasonHistory reads and writes season winners through a Postgres pool.
type SeasonHistory struct {
	db      *sqlx.DB
	winners *WinnerRepository
}

// NewSeasonHistory creates a SeasonHistory over an open pool.
func NewSeasonHistory(db *sqlx.DB) *SeasonHistory {
	return &SeasonHistory{
		db:      db,
		winners: NewWinnerRepository(),
	}
}

// PreviousWinners returns the season's winners from other events.
func (h *SeasonHistory) PreviousWinners(ctx context.Context, season, eventName string) ([]models.PrizeWinner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.winners.LoadSeasonWinners(h.db, season, eventName)
}

// Save stores all winners of a result in one transaction.
func (h *SeasonHistory) Save(ctx context.Context, result *models.RaffleResult) error {
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	saved, err := h.winners.SaveResult(tx, result)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Infof("Saved %d winners of raffle %s [season=%s]", saved, result.ID, result.Season)
	return nil
}

// Ping checks the pool is reachable.
func (h *SeasonHistory) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
