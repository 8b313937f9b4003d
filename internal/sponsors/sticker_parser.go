package sponsors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/logger"
)

// stickerLayout describes where a schema version keeps each column.
type stickerLayout struct {
	header      string
	columns     int
	carColumn   int
	ownerColumn int
	rentalCol   int
	sponsorCols map[string]int
}

var stickerLayouts = map[string]stickerLayout{
	SchemaV1_0: {
		header:      "Number,Driver,IsRental,_425,AAF,Alpinestars,Bimmerworld,Griots,Proformance,RoR,Redline,Toyo,Comment",
		columns:     13,
		carColumn:   0,
		ownerColumn: 1,
		rentalCol:   2,
		sponsorCols: map[string]int{
			"_425": 3, "aaf": 4, "alpinestars": 5, "bimmerworld": 6, "griots": 7,
			"proformance": 8, "ror": 9, "redline": 10, "toyo": 11,
		},
	},
	SchemaV1_2: {
		header:      "Number,Owner,Listed Color,Email 1,Email 2,Is A Rental,_425,AAF,Bimmerworld,Griots,Redline,RoR,Toyo,Proformance,Alpinestars",
		columns:     15,
		carColumn:   0,
		ownerColumn: 1,
		rentalCol:   5,
		sponsorCols: map[string]int{
			"_425": 6, "aaf": 7, "bimmerworld": 8, "griots": 9, "redline": 10,
			"ror": 11, "toyo": 12, "proformance": 13, "alpinestars": 14,
		},
	},
}

// DetectSchemaVersion matches a header row against the known layouts.
func DetectSchemaVersion(header string) (string, error) {
	normalized := normalizeHeader(header)
	for version, layout := range stickerLayouts {
		if normalizeHeader(layout.header) == normalized {
			return version, nil
		}
	}
	return "", fmt.Errorf("%w: unrecognized header %q", ErrUnsupportedSchema, header)
}

func normalizeHeader(header string) string {
	fields := strings.Split(header, ",")
	for i, f := range fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return strings.Join(fields, ",")
}

func toBool(value string) bool {
	return strings.TrimSpace(value) == "y"
}

// ParseStickerCSV reads a sticker sheet. The first row is the header. When
// schemaVersion is empty it is detected from the header.
// Rows that cannot be used are logged and skipped.
func ParseStickerCSV(r io.Reader, schemaVersion string) (StickerParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return StickerParseResult{}, fmt.Errorf("sticker sheet is empty")
	}
	if err != nil {
		return StickerParseResult{}, fmt.Errorf("failed to read sticker header: %w", err)
	}

	if schemaVersion == "" {
		schemaVersion, err = DetectSchemaVersion(strings.Join(header, ","))
		if err != nil {
			return StickerParseResult{}, err
		}
	}
	layout, ok := stickerLayouts[schemaVersion]
	if !ok {
		return StickerParseResult{}, fmt.Errorf("%w: %q", ErrUnsupportedSchema, schemaVersion)
	}

	result := StickerParseResult{
		SchemaVersion:       schemaVersion,
		CarToStickerMapping: make(map[string]map[string]bool),
		CarRentalMap:        make(map[string]string),
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return StickerParseResult{}, fmt.Errorf("failed to read sticker row %d: %w", row, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) != layout.columns {
			logger.Warningf("Skipping sticker row %d: %d columns, expected %d", row, len(record), layout.columns)
			continue
		}

		carNumber := strings.TrimSpace(record[layout.carColumn])
		if carNumber == "" {
			logger.Warningf("Skipping sticker row %d: car number missing", row)
			continue
		}

		if toBool(record[layout.rentalCol]) {
			owner := strings.TrimSpace(record[layout.ownerColumn])
			if owner == "" {
				logger.Warningf("Skipping sticker row %d: rental car %s has no owner", row, carNumber)
				continue
			}
			result.CarRentalMap[carNumber] = owner
		}

		stickers, ok := result.CarToStickerMapping[carNumber]
		if !ok {
			stickers = make(map[string]bool, len(layout.sponsorCols))
			result.CarToStickerMapping[carNumber] = stickers
		}
		for sponsor, col := range layout.sponsorCols {
			stickers[sponsor] = toBool(record[col])
		}
	}

	return result, nil
}
