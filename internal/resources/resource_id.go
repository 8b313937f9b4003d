package resources

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"deluxxe/internal/models"
)

// Segment is a stage of a resource identifier. Segments must be added in
// declaration order, each exactly once.
type Segment int

const (
	SegmentNone Segment = iota
	SegmentSeason
	SegmentEvent
	SegmentDrawing
	SegmentPrize
	SegmentSerial
)

func (s Segment) String() string {
	switch s {
	case SegmentNone:
		return "none"
	case SegmentSeason:
		return "season"
	case SegmentEvent:
		return "event"
	case SegmentDrawing:
		return "drawing"
	case SegmentPrize:
		return "prize"
	case SegmentSerial:
		return "serial"
	}
	return "segment(" + strconv.Itoa(int(s)) + ")"
}

const (
	delimiter = "/"

	seasonSegmentName  = "season"
	eventSegmentName   = "event"
	drawingSegmentName = "drawing"
	roundSegmentName   = "round"
	prizeSegmentName   = "prize"
	serialSegmentName  = "serial"
)

var (
	ErrSegmentTwice = errors.New("segment already added")
	ErrSegmentOrder = errors.New("segment added before its predecessor")
)

// SegmentError reports a misuse of the Builder.
type SegmentError struct {
	Segment Segment
	Last    Segment
	Err     error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("resource id: cannot add %s after %s: %v", e.Segment, e.Last, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// Builder assembles hierarchical resource identifiers of the form
// season/<s>/event/<name...>/<id>/drawing/<type>/.../round/<n>/prize/<sponsor>/<sku>/serial/<n>.
//
// The first ordering mistake is kept; later calls are ignored and Build
// returns the error.
type Builder struct {
	parts []string
	last  Segment
	err   error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) advance(next Segment) bool {
	if b.err != nil {
		return false
	}
	switch {
	case b.last >= next:
		b.err = &SegmentError{Segment: next, Last: b.last, Err: ErrSegmentTwice}
	case b.last != next-1:
		b.err = &SegmentError{Segment: next, Last: b.last, Err: ErrSegmentOrder}
	default:
		b.last = next
		return true
	}
	return false
}

func (b *Builder) WithSeason(season string) *Builder {
	if b.advance(SegmentSeason) {
		b.parts = append(b.parts, seasonSegmentName, models.Sanitize(season))
	}
	return b
}

func (b *Builder) WithEvent(eventName, eventID string) *Builder {
	if b.advance(SegmentEvent) {
		b.parts = append(b.parts, eventSegmentName, NormalizeEventName(eventName), models.Sanitize(eventID))
	}
	return b
}

// WithRaceDrawingRound adds the drawing segment for one race session.
func (b *Builder) WithRaceDrawingRound(sessionName, sessionID string, round int) *Builder {
	return b.withDrawingRound(models.DrawingTypeRace, sessionName, sessionID, round)
}

// WithEventDrawingRound adds the drawing segment for the event-wide drawing.
func (b *Builder) WithEventDrawingRound(round int) *Builder {
	return b.withDrawingRound(models.DrawingTypeEvent, "", "", round)
}

func (b *Builder) withDrawingRound(drawingType models.DrawingType, sessionName, sessionID string, round int) *Builder {
	if !b.advance(SegmentDrawing) {
		return b
	}
	b.parts = append(b.parts, drawingSegmentName, models.Sanitize(string(drawingType)))
	b.parts = append(b.parts, sessionParts(sessionName, sessionID)...)
	b.parts = append(b.parts, roundSegmentName, strconv.Itoa(round))
	return b
}

func (b *Builder) WithPrize(sponsorName, sku string) *Builder {
	if b.advance(SegmentPrize) {
		b.parts = append(b.parts, prizeSegmentName, models.Sanitize(sponsorName), models.Sanitize(sku))
	}
	return b
}

func (b *Builder) WithSerial(serial string) *Builder {
	if b.advance(SegmentSerial) {
		b.parts = append(b.parts, serialSegmentName, models.Sanitize(serial))
	}
	return b
}

// Copy returns an independent builder holding the same segments.
func (b *Builder) Copy() *Builder {
	parts := make([]string, len(b.parts))
	copy(parts, b.parts)
	return &Builder{parts: parts, last: b.last, err: b.err}
}

func (b *Builder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return strings.Join(b.parts, delimiter), nil
}

// SessionKey is the part of a race drawing segment that identifies the
// session. Two sessions with the same key would share resource ids.
func SessionKey(sessionName, sessionID string) string {
	return strings.Join(sessionParts(sessionName, sessionID), delimiter)
}

// PrizeKey is the part of a prize segment that identifies the prize kind.
// Two catalogue records with the same key would share resource ids.
func PrizeKey(sponsorName, sku string) string {
	return models.Sanitize(sponsorName) + delimiter + models.Sanitize(sku)
}

// sessionParts drops blank session name or id.
func sessionParts(sessionName, sessionID string) []string {
	var parts []string
	if strings.TrimSpace(sessionName) != "" {
		parts = append(parts, models.Sanitize(sessionName))
	}
	if strings.TrimSpace(sessionID) != "" {
		parts = append(parts, models.Sanitize(sessionID))
	}
	return parts
}

// NormalizeEventName splits an event name on spaces, drops empty words and
// lone dashes, and sanitizes what is left into a single hyphenated segment.
func NormalizeEventName(eventName string) string {
	var words []string
	for _, word := range strings.Split(eventName, " ") {
		if strings.TrimSpace(word) == "" || word == "-" {
			continue
		}
		words = append(words, word)
	}
	return models.Sanitize(strings.Join(words, delimiter))
}
