package repository

import (
	"database/sql"
	"fmt"
	"time"

	"deluxxe/internal/models"
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Select(dest interface{}, query string, args ...interface{}) error
}

// WinnerRow is one awarded prize as stored in raffle_winners.
type WinnerRow struct {
	ResourceID       string    `db:"resource_id"`
	RaffleID         string    `db:"raffle_id"`
	Season           string    `db:"season"`
	EventName        string    `db:"event_name"`
	DrawingType      string    `db:"drawing_type"`
	CandidateName    string    `db:"candidate_name"`
	CarNumber        string    `db:"car_number"`
	SponsorName      string    `db:"sponsor_name"`
	PrizeDescription string    `db:"prize_description"`
	SKU              string    `db:"sku"`
	Serial           string    `db:"serial"`
	CreatedAt        time.Time `db:"created_at"`
}

// PrizeWinner converts the row back into a winner.
func (r WinnerRow) PrizeWinner() models.PrizeWinner {
	return models.PrizeWinner{
		PrizeDescription: models.PrizeDescription{
			SponsorName: r.SponsorName,
			Description: r.PrizeDescription,
			SKU:         r.SKU,
			Serial:      r.Serial,
		},
		Candidate:  models.Candidate{Name: r.CandidateName, CarNumber: r.CarNumber},
		ResourceID: r.ResourceID,
	}
}

// WinnerRepository stores raffle winners so later events of the season can
// use them as history.
type WinnerRepository struct{}

// NewWinnerRepository creates a new winner repository
func NewWinnerRepository() *WinnerRepository {
	return &WinnerRepository{}
}

// SaveResult upserts every winner of the result. A rerun of the same event
// overwrites the earlier rows for the same resource ids.
func (r *WinnerRepository) SaveResult(db DBExecutor, result *models.RaffleResult) (int, error) {
	query := `
		INSERT INTO raffle_winners (
			resource_id, raffle_id, season, event_name, drawing_type,
			candidate_name, car_number, sponsor_name, prize_description, sku, serial, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (resource_id) DO UPDATE SET
			raffle_id = EXCLUDED.raffle_id,
			candidate_name = EXCLUDED.candidate_name,
			car_number = EXCLUDED.car_number,
			prize_description = EXCLUDED.prize_description,
			created_at = EXCLUDED.created_at
	`

	saved := 0
	for _, drawing := range result.Drawings {
		for _, w := range drawing.Winners {
			_, err := db.Exec(query,
				w.ResourceID, result.ID, result.Season, result.Name, string(drawing.DrawingType),
				w.Candidate.Name, w.Candidate.CarNumber, w.PrizeDescription.SponsorName,
				w.PrizeDescription.Description, w.PrizeDescription.SKU, w.PrizeDescription.Serial,
				result.CreatedAt)
			if err != nil {
				return saved, fmt.Errorf("failed to save winner %s: %w", w.ResourceID, err)
			}
			saved++
		}
	}

	return saved, nil
}

// LoadSeasonWinners returns every stored winner of the season, excluding
// the given event so a rerun does not count against itself.
func (r *WinnerRepository) LoadSeasonWinners(db DBExecutor, season, excludeEventName string) ([]models.PrizeWinner, error) {
	query := `
		SELECT resource_id, raffle_id, season, event_name, drawing_type,
			candidate_name, car_number, sponsor_name, prize_description, sku, serial, created_at
		FROM raffle_winners
		WHERE season = $1 AND event_name <> $2
		ORDER BY created_at ASC, resource_id ASC
	`

	var rows []WinnerRow
	if err := db.Select(&rows, query, season, excludeEventName); err != nil {
		return nil, fmt.Errorf("failed to load season winners: %w", err)
	}

	winners := make([]models.PrizeWinner, 0, len(rows))
	for _, row := range rows {
		winners = append(winners, row.PrizeWinner())
	}
	return winners, nil
}
