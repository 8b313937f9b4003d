package sponsors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"deluxxe/internal/models"
	"deluxxe/internal/resources"
)

var (
	ErrNameRequired        = errors.New("name is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrSKURequired         = errors.New("sku is required")
	ErrNonPositiveCount    = errors.New("count must be greater than zero")
	ErrNegativeLimit       = errors.New("seasonal limit must be equal to or greater than zero")
	ErrDuplicateSKU        = errors.New("duplicate sku")
	ErrInvalidValueMap     = errors.New("invalid value map")
)

// RecordError ties a validation failure to the catalogue record that caused it.
type RecordError struct {
	Section string
	Index   int
	Name    string
	SKU     string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s[%d] name=%q sku=%q: %v", e.Section, e.Index, e.Name, e.SKU, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// ValidatePrizeRecords checks the whole catalogue and returns every problem
// found, joined, or nil.
func ValidatePrizeRecords(records models.PrizeDescriptionRecords) error {
	var errs []error
	errs = append(errs, validateSection("perRacePrizes", records.PerRacePrizes)...)
	errs = append(errs, validateSection("perEventPrizes", records.PerEventPrizes)...)
	return errors.Join(errs...)
}

func validateSection(section string, records []models.PrizeDescriptionRecord) []error {
	var errs []error
	seen := make(map[string]int, len(records))

	for i, r := range records {
		fail := func(err error) {
			errs = append(errs, &RecordError{Section: section, Index: i, Name: r.Name, SKU: r.SKU, Err: err})
		}

		if strings.TrimSpace(r.Name) == "" {
			fail(ErrNameRequired)
		}
		if strings.TrimSpace(r.Description) == "" {
			fail(ErrDescriptionRequired)
		}
		if strings.TrimSpace(r.SKU) == "" {
			fail(ErrSKURequired)
		}
		if r.Count <= 0 {
			fail(ErrNonPositiveCount)
		}
		if r.SeasonalLimit < 0 {
			fail(ErrNegativeLimit)
		}
		if err := validateValueMap(r); err != nil {
			fail(err)
		}

		key := resources.PrizeKey(r.Name, r.SKU)
		if first, ok := seen[key]; ok {
			fail(fmt.Errorf("%w: key %s also used by record %d", ErrDuplicateSKU, key, first))
			continue
		}
		seen[key] = i
	}

	return errs
}

func validateValueMap(r models.PrizeDescriptionRecord) error {
	switch r.ValueFunc {
	case "":
		return nil
	case models.ValueFuncCountAtOrBelow:
	default:
		return fmt.Errorf("%w: unknown value function %q", ErrInvalidValueMap, r.ValueFunc)
	}

	if len(r.ValueMap) == 0 {
		return fmt.Errorf("%w: value function %s needs a value map", ErrInvalidValueMap, r.ValueFunc)
	}
	for threshold := range r.ValueMap {
		if _, err := strconv.Atoi(strings.TrimSpace(threshold)); err != nil {
			return fmt.Errorf("%w: threshold %q is not a number", ErrInvalidValueMap, threshold)
		}
	}
	return nil
}
