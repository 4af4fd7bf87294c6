package types

import (
	"fmt"
	"strings"
)

// RoomLabel is one of the fixed room categories a photo can be filed under.
// The set is closed; labels are always upper case.
type RoomLabel string

// Canonical room labels. The declaration order is the canonical order used
// for deterministic tie-breaking in the scene fallback.
const (
	Kitchen     RoomLabel = "KITCHEN"
	LivingRoom  RoomLabel = "LIVING ROOM"
	Bedroom     RoomLabel = "BEDROOM"
	Office      RoomLabel = "OFFICE"
	DiningRoom  RoomLabel = "DINING ROOM"
	LaundryRoom RoomLabel = "LAUNDRY ROOM"
	Deck        RoomLabel = "DECK"
	Exterior    RoomLabel = "EXTERIOR"
	Bathroom    RoomLabel = "BATHROOM"
	Other       RoomLabel = "OTHER"
)

// canonicalOrder lists every RoomLabel in canonical order.
var canonicalOrder = []RoomLabel{
	Kitchen,
	LivingRoom,
	Bedroom,
	Office,
	DiningRoom,
	LaundryRoom,
	Deck,
	Exterior,
	Bathroom,
	Other,
}

// CanonicalLabels returns all room labels in canonical order, OTHER last.
func CanonicalLabels() []RoomLabel {
	out := make([]RoomLabel, len(canonicalOrder))
	copy(out, canonicalOrder)
	return out
}

// SceneLabels returns the labels the scene classifier scores, in canonical
// order. OTHER is excluded: it is never scored, only defaulted to.
func SceneLabels() []RoomLabel {
	out := make([]RoomLabel, 0, len(canonicalOrder)-1)
	for _, l := range canonicalOrder {
		if l != Other {
			out = append(out, l)
		}
	}
	return out
}

// Valid reports whether l is one of the canonical room labels.
func (l RoomLabel) Valid() bool {
	for _, c := range canonicalOrder {
		if l == c {
			return true
		}
	}
	return false
}

// String returns the label text.
func (l RoomLabel) String() string {
	return string(l)
}

// ParseRoomLabel normalizes s (trim, upper case) and matches it against the
// canonical label set. The second return is false when s is not a known label.
func ParseRoomLabel(s string) (RoomLabel, bool) {
	l := RoomLabel(strings.ToUpper(strings.TrimSpace(s)))
	if l.Valid() {
		return l, true
	}
	return Other, false
}

// DecisionSource identifies which layer of the classifier produced a result.
type DecisionSource string

// Decision sources, strongest first.
const (
	DecidedByHardRule      DecisionSource = "HARD_RULE"
	DecidedByHeuristicRule DecisionSource = "HEURISTIC_RULE"
	DecidedByMLFallback    DecisionSource = "ML_FALLBACK"
	DecidedByDefault       DecisionSource = "DEFAULT"
)

// KeywordScores holds raw per-keyword confidence scores from the vision model.
// Scores are in [0,1] and have not yet been filtered by the detection
// threshold.
type KeywordScores map[string]float64

// ObjectDetection is the thresholded form of KeywordScores: only objects whose
// score met the detection threshold are present. A missing key means "not
// detected"; rule predicates test for presence only and never read a default
// score for absent keys.
type ObjectDetection map[string]float64

// Has reports whether the named object was detected.
func (d ObjectDetection) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// HasAny reports whether at least one of the named objects was detected.
func (d ObjectDetection) HasAny(names ...string) bool {
	for _, n := range names {
		if d.Has(n) {
			return true
		}
	}
	return false
}

// HasAll reports whether every named object was detected.
func (d ObjectDetection) HasAll(names ...string) bool {
	for _, n := range names {
		if !d.Has(n) {
			return false
		}
	}
	return true
}

// SceneScores holds per-room zero-shot scene confidences from the vision
// model, keyed by room label. OTHER never appears as a key.
type SceneScores map[RoomLabel]float64

// ClassificationResult is the final outcome for one photo. It is immutable
// once produced. Renaming consumers read Label only; the remaining fields are
// provenance for diagnostics.
type ClassificationResult struct {
	Label              RoomLabel      `json:"label"`
	DecidedBy          DecisionSource `json:"decided_by"`
	MatchedRule        string         `json:"matched_rule,omitempty"`
	FallbackConfidence float64        `json:"fallback_confidence,omitempty"`
	InferenceNote      string         `json:"inference_note,omitempty"`
}

// InferenceError reports that the vision model failed to produce scores for
// an image. Callers recover from it by treating the image as having no
// detected objects and no scene scores.
type InferenceError struct {
	Op  string // operation that failed, e.g. "detect objects"
	Err error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed (%s): %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *InferenceError) Unwrap() error {
	return e.Err
}
