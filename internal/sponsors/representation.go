package sponsors

import (
	"fmt"

	"deluxxe/internal/models"
)

// Representation returns, for each known sponsor, the share of candidates
// whose car carries that sponsor's sticker, formatted as a percentage.
func Representation(manager *StickerManager, candidates []models.Candidate) map[string]string {
	if len(candidates) == 0 {
		return nil
	}

	out := make(map[string]string, len(KnownSponsors))
	for _, sponsor := range KnownSponsors {
		with := 0
		for _, c := range candidates {
			if manager.HasSticker(c.CarNumber, sponsor) == StickerStatusHasSticker {
				with++
			}
		}
		out[sponsor] = fmt.Sprintf("%.2f%%", float64(with)/float64(len(candidates))*100)
	}
	return out
}
