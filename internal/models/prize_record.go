package models

// ValueFuncCountAtOrBelow picks a prize value from ValueMap using the number
// of eligible candidates.
const ValueFuncCountAtOrBelow = "countAtOrBelow"

// PrizeDescriptionRecord is a sponsor's catalogue entry as it arrives from the
// prize sheet. It expands into Count PrizeDescriptions.
type PrizeDescriptionRecord struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Count         int    `json:"count"`
	SKU           string `json:"sku"`
	SeasonalLimit int    `json:"seasonalLimit"`
	// ValueFunc is empty or ValueFuncCountAtOrBelow.
	ValueFunc string `json:"valueFunc,omitempty"`
	// ValueMap maps a candidate-count threshold to the value substituted
	// for "{0}" in Description.
	ValueMap map[string]string `json:"valueMap,omitempty"`
}

// Key returns the catalogue-wide key of the record.
func (r PrizeDescriptionRecord) Key() string {
	return PrizeKey(r.Name, r.SKU)
}

// PrizeDescriptionRecords is the whole prize catalogue of an event.
type PrizeDescriptionRecords struct {
	PerRacePrizes  []PrizeDescriptionRecord `json:"perRacePrizes"`
	PerEventPrizes []PrizeDescriptionRecord `json:"perEventPrizes"`
}

// All returns per-race and per-event records together.
func (r PrizeDescriptionRecords) All() []PrizeDescriptionRecord {
	all := make([]PrizeDescriptionRecord, 0, len(r.PerRacePrizes)+len(r.PerEventPrizes))
	all = append(all, r.PerRacePrizes...)
	return append(all, r.PerEventPrizes...)
}
