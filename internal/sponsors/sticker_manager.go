package sponsors

import (
	"errors"
	"fmt"
	"strings"
)

// Known sticker schema versions.
const (
	SchemaV1_0 = "1.0"
	SchemaV1_2 = "1.2"
)

// Sponsors whose stickers the sticker sheets track, lower-cased.
var KnownSponsors = []string{"_425", "aaf", "alpinestars", "bimmerworld", "griots", "proformance", "ror", "redline", "toyo"}

var ErrUnsupportedSchema = errors.New("unsupported sticker schema version")

// StickerStatus is the answer to "does this car carry this sponsor's sticker".
type StickerStatus int

const (
	StickerStatusHasSticker StickerStatus = iota
	StickerStatusNoSticker
	// StickerStatusCarUnmapped means the sticker sheet has no row for the car.
	StickerStatusCarUnmapped
	// StickerStatusSponsorUnmapped means the car is known but the sponsor
	// column was not filled in.
	StickerStatusSponsorUnmapped
)

func (s StickerStatus) String() string {
	switch s {
	case StickerStatusHasSticker:
		return "has-sticker"
	case StickerStatusNoSticker:
		return "no-sticker"
	case StickerStatusCarUnmapped:
		return "car-unmapped"
	case StickerStatusSponsorUnmapped:
		return "sponsor-unmapped"
	}
	return fmt.Sprintf("sticker-status(%d)", int(s))
}

// StickerParseResult is the normalized content of a sticker sheet.
type StickerParseResult struct {
	SchemaVersion       string                     `json:"schemaVersion"`
	CarToStickerMapping map[string]map[string]bool `json:"carToStickerMapping"`
	CarRentalMap        map[string]string          `json:"carRentalMap"`
}

// IsEmpty reports whether the sheet produced no cars at all.
func (r StickerParseResult) IsEmpty() bool {
	return len(r.CarToStickerMapping) == 0 && len(r.CarRentalMap) == 0
}

// StickerManager answers sticker and ownership questions for a sticker sheet.
// It is read-only after construction.
type StickerManager struct {
	schemaVersion string
	stickers      map[string]map[string]bool
	rentals       map[string]string
}

// NewStickerManager copies the parse result into a lookup structure with
// lower-cased sponsor keys. Unknown schema versions are rejected.
func NewStickerManager(result StickerParseResult) (*StickerManager, error) {
	switch result.SchemaVersion {
	case SchemaV1_0, SchemaV1_2:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSchema, result.SchemaVersion)
	}

	stickers := make(map[string]map[string]bool, len(result.CarToStickerMapping))
	for car, sponsorMap := range result.CarToStickerMapping {
		car = strings.TrimSpace(car)
		lowered, ok := stickers[car]
		if !ok {
			lowered = make(map[string]bool, len(sponsorMap))
			stickers[car] = lowered
		}
		for sponsor, has := range sponsorMap {
			lowered[strings.ToLower(strings.TrimSpace(sponsor))] = has
		}
	}

	rentals := make(map[string]string, len(result.CarRentalMap))
	for car, owner := range result.CarRentalMap {
		rentals[strings.TrimSpace(car)] = strings.TrimSpace(owner)
	}

	return &StickerManager{
		schemaVersion: result.SchemaVersion,
		stickers:      stickers,
		rentals:       rentals,
	}, nil
}

// SchemaVersion returns the schema of the sheet the manager was built from.
func (m *StickerManager) SchemaVersion() string {
	return m.schemaVersion
}

// HasSticker looks up the sticker for a car and a sponsor.
func (m *StickerManager) HasSticker(carNumber, sponsorName string) StickerStatus {
	carStickers, ok := m.stickers[strings.TrimSpace(carNumber)]
	if !ok {
		return StickerStatusCarUnmapped
	}
	has, ok := carStickers[strings.ToLower(strings.TrimSpace(sponsorName))]
	if !ok {
		return StickerStatusSponsorUnmapped
	}
	if has {
		return StickerStatusHasSticker
	}
	return StickerStatusNoSticker
}

// IsMapped reports whether the sticker sheet has a row for the car.
func (m *StickerManager) IsMapped(carNumber string) bool {
	_, ok := m.stickers[strings.TrimSpace(carNumber)]
	return ok
}

// IsRental reports whether the car is flagged as a rental.
func (m *StickerManager) IsRental(carNumber string) bool {
	_, ok := m.rentals[strings.TrimSpace(carNumber)]
	return ok
}

// ResolveCandidateName returns the name credited with a win for the car.
// Prizes follow the car's owner unless renters are allowed to win.
func (m *StickerManager) ResolveCandidateName(carNumber, rawDriverName string, allowRentersToWin bool) string {
	if allowRentersToWin {
		return rawDriverName
	}
	if owner, ok := m.rentals[strings.TrimSpace(carNumber)]; ok && owner != "" {
		return owner
	}
	return rawDriverName
}
