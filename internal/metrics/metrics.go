package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DrawingDuration tracks how long a multi-round drawing takes
	DrawingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "raffle_drawing_duration_seconds",
			Help: "Duration of multi-round prize drawings in seconds",
			Buckets: []float64{
				0.0005, // 0.5ms
				0.001,  // 1ms
				0.005,  // 5ms
				0.01,   // 10ms
				0.05,   // 50ms
				0.1,    // 100ms
				0.5,    // 500ms
				1.0,    // 1s
			},
		},
		[]string{"drawing_type"}, // Race or Event
	)

	// DrawingRounds tracks how many rounds a drawing needed
	DrawingRounds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raffle_drawing_rounds",
			Help:    "Number of rounds run per drawing",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
		[]string{"drawing_type"},
	)

	// Prizes counts prizes by drawing outcome
	Prizes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_prizes_total",
			Help: "Prizes drawn, by drawing type and outcome",
		},
		[]string{"drawing_type", "outcome"}, // awarded or not_awarded
	)

	// RaffleRequests counts event raffle requests by status
	RaffleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_requests_total",
			Help: "Event raffle requests by status",
		},
		[]string{"status"}, // success, invalid, failed, limited
	)

	// StickerDataIssues counts eligibility checks that hit a gap in the sticker sheet
	StickerDataIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_sticker_data_issues_total",
			Help: "Eligibility checks against cars or sponsors missing from the sticker sheet",
		},
		[]string{"status"}, // car-unmapped or sponsor-unmapped
	)
)

// RecordDrawing records the outcome of one multi-round drawing
func RecordDrawing(drawingType string, duration float64, rounds, awarded, notAwarded int) {
	DrawingDuration.WithLabelValues(drawingType).Observe(duration)
	DrawingRounds.WithLabelValues(drawingType).Observe(float64(rounds))
	Prizes.WithLabelValues(drawingType, "awarded").Add(float64(awarded))
	Prizes.WithLabelValues(drawingType, "not_awarded").Add(float64(notAwarded))
}

// RecordRaffleRequest counts one event raffle request
func RecordRaffleRequest(status string) {
	RaffleRequests.WithLabelValues(status).Inc()
}

// RecordStickerDataIssue counts one sticker sheet gap
func RecordStickerDataIssue(status string) {
	StickerDataIssues.WithLabelValues(status).Inc()
}
