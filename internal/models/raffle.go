package models

import (
	"strings"
	"time"
)

// DrawingType tells whether a drawing belongs to a single race session or to
// the whole event.
type DrawingType string

const (
	DrawingTypeRace  DrawingType = "Race"
	DrawingTypeEvent DrawingType = "Event"
)

// Candidate is a race participant who can win prizes.
// Within a drawing a candidate is identified by CarNumber; Name is the name
// credited with the win, which may be the car owner rather than the driver.
type Candidate struct {
	Name      string `json:"name"`
	CarNumber string `json:"carNumber"`
}

// PrizeDescription is one physical unit of a sponsor's prize.
// SKU identifies the prize kind, Serial separates identical units.
type PrizeDescription struct {
	SponsorName string `json:"sponsorName"`
	Description string `json:"description"`
	SKU         string `json:"sku"`
	Serial      string `json:"serial"`
}

// Key returns the catalogue-wide key of the prize kind.
func (p PrizeDescription) Key() string {
	return PrizeKey(p.SponsorName, p.SKU)
}

// PrizeWinner links a candidate to the prize they won.
type PrizeWinner struct {
	PrizeDescription PrizeDescription `json:"prizeDescription"`
	Candidate        Candidate        `json:"candidate"`
	ResourceID       string           `json:"resourceId"`
}

// DrawingResult is the outcome of one multi-round allocation.
type DrawingResult struct {
	Winners     []PrizeWinner      `json:"winners"`
	NotAwarded  []PrizeDescription `json:"notAwarded"`
	DrawingType DrawingType        `json:"drawingType"`
	RandomSeed  uint64             `json:"randomSeed"`
}

// RaffleResult aggregates every drawing of an event: one per race session
// followed by the event-wide drawing.
type RaffleResult struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Season            string            `json:"season"`
	ConfigurationName string            `json:"configurationName"`
	ResourceID        string            `json:"resourceId"`
	Drawings          []DrawingResult   `json:"drawings"`
	Representation    map[string]string `json:"representation,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// Winners flattens the winners of every drawing.
func (r *RaffleResult) Winners() []PrizeWinner {
	var winners []PrizeWinner
	for _, d := range r.Drawings {
		winners = append(winners, d.Winners...)
	}
	return winners
}

// PrizeKey builds the key used for duplicate detection and seasonal limits.
func PrizeKey(sponsorName, sku string) string {
	return Sanitize(sponsorName) + "-" + sku
}

var sanitizer = strings.NewReplacer(" ", "-", "/", "-", `\`, "-")

// Sanitize turns free text into a lower-case, hyphenated form that is safe to
// use as a path segment.
func Sanitize(value string) string {
	return strings.TrimSpace(strings.ToLower(sanitizer.Replace(value)))
}
