package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"deluxxe/internal/models"
)

const valuePlaceholder = "{0}"

// GeneratePrizeDescriptions expands every record into Count units with serials
// "1".."Count". Records with a value function get their value computed from
// candidateCount, the size of the pool the prizes will be drawn from.
func GeneratePrizeDescriptions(records []models.PrizeDescriptionRecord, candidateCount int) ([]models.PrizeDescription, error) {
	var descriptions []models.PrizeDescription

	for _, record := range records {
		description := record.Description
		if record.ValueFunc != "" {
			value, err := CalculatePrizeValue(record.ValueFunc, record.ValueMap, candidateCount)
			if err != nil {
				return nil, fmt.Errorf("prize %s: %w", record.Key(), err)
			}
			description = strings.ReplaceAll(description, valuePlaceholder, value)
		}

		for i := 1; i <= record.Count; i++ {
			descriptions = append(descriptions, models.PrizeDescription{
				SponsorName: record.Name,
				Description: description,
				SKU:         record.SKU,
				Serial:      strconv.Itoa(i),
			})
		}
	}

	return descriptions, nil
}

// CalculatePrizeValue is a step function over the candidate count: the value
// of the smallest threshold at or above the count wins, and counts above every
// threshold get the largest threshold's value.
func CalculatePrizeValue(valueFunc string, valueMap map[string]string, candidateCount int) (string, error) {
	if valueFunc != models.ValueFuncCountAtOrBelow {
		return "", fmt.Errorf("unknown value function %q", valueFunc)
	}
	if len(valueMap) == 0 {
		return "", fmt.Errorf("value function %s has an empty value map", valueFunc)
	}

	type step struct {
		threshold int
		value     string
	}
	steps := make([]step, 0, len(valueMap))
	for key, value := range valueMap {
		threshold, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return "", fmt.Errorf("threshold %q is not a number: %w", key, err)
		}
		steps = append(steps, step{threshold: threshold, value: value})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].threshold < steps[j].threshold })

	for _, s := range steps {
		if candidateCount <= s.threshold {
			return s.value, nil
		}
	}
	return steps[len(steps)-1].value, nil
}
