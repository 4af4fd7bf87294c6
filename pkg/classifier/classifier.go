// Package classifier turns one photo into exactly one room label. Detected
// objects feed the rule engine first; the scene classifier is consulted only
// when no rule fires, and OTHER is the answer when nothing qualifies.
package classifier

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/menta2k/mls-photo-processor/pkg/detection"
	"github.com/menta2k/mls-photo-processor/pkg/rules"
	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// VisionAdapter is the narrow model capability the classifier needs: raw
// object keyword scores and raw scene scores. Tests substitute a stub.
type VisionAdapter interface {
	DetectObjects(ctx context.Context, img image.Image) (types.KeywordScores, error)
	ScoreScenes(ctx context.Context, img image.Image) (types.SceneScores, error)
}

// Config holds the two decision thresholds.
type Config struct {
	// DetectionThreshold is the minimum keyword score for an object to count
	// as present. Inclusive.
	DetectionThreshold float64
	// FallbackThreshold is the minimum scene score for the fallback to
	// override OTHER. Inclusive.
	FallbackThreshold float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		DetectionThreshold: 0.6,
		FallbackThreshold:  0.65,
	}
}

// Validate rejects thresholds outside [0,1]. A bad threshold is a deployment
// error and must stop startup.
func (c Config) Validate() error {
	if c.DetectionThreshold < 0 || c.DetectionThreshold > 1 {
		return fmt.Errorf("detection threshold %v outside [0,1]", c.DetectionThreshold)
	}
	if c.FallbackThreshold < 0 || c.FallbackThreshold > 1 {
		return fmt.Errorf("fallback threshold %v outside [0,1]", c.FallbackThreshold)
	}
	return nil
}

// Classifier orchestrates detection, rules and the scene fallback. It is
// stateless across images.
type Classifier struct {
	vision VisionAdapter
	engine *rules.Engine
	cfg    Config
}

// New creates a classifier with the default rule tables and thresholds.
func New(vision VisionAdapter) *Classifier {
	return &Classifier{
		vision: vision,
		engine: rules.NewEngine(),
		cfg:    DefaultConfig(),
	}
}

// NewWithConfig creates a classifier with a custom engine and thresholds.
// A nil engine selects the default tables.
func NewWithConfig(vision VisionAdapter, engine *rules.Engine, cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		engine = rules.NewEngine()
	}
	return &Classifier{vision: vision, engine: engine, cfg: cfg}, nil
}

// Classify decides the room label for one photo. It is total: model failures
// are recovered into an OTHER result with the failure recorded in
// InferenceNote, never returned as an error. Scene scoring runs only when
// both rule tiers are exhausted.
func (c *Classifier) Classify(ctx context.Context, img image.Image) types.ClassificationResult {
	raw, err := c.vision.DetectObjects(ctx, img)
	if err != nil {
		// No objects and no scenes: the image routes to OTHER via the
		// default path and stays reviewable.
		slog.Debug("photoproc: object detection failed", "error", err.Error())
		return types.ClassificationResult{
			Label:         types.Other,
			DecidedBy:     types.DecidedByDefault,
			InferenceNote: err.Error(),
		}
	}

	detected := detection.Normalize(raw, c.cfg.DetectionThreshold)
	if match, ok := c.engine.Evaluate(detected); ok {
		return types.ClassificationResult{
			Label:       match.Label,
			DecidedBy:   match.Source,
			MatchedRule: match.Rule,
		}
	}

	scores, err := c.vision.ScoreScenes(ctx, img)
	if err != nil {
		slog.Debug("photoproc: scene scoring failed", "error", err.Error())
		return types.ClassificationResult{
			Label:         types.Other,
			DecidedBy:     types.DecidedByDefault,
			InferenceNote: err.Error(),
		}
	}

	if label, confidence, ok := ResolveScene(scores, c.cfg.FallbackThreshold); ok {
		return types.ClassificationResult{
			Label:              label,
			DecidedBy:          types.DecidedByMLFallback,
			FallbackConfidence: confidence,
		}
	}

	return types.ClassificationResult{
		Label:     types.Other,
		DecidedBy: types.DecidedByDefault,
	}
}

// Config returns the thresholds in effect.
func (c *Classifier) Config() Config {
	return c.cfg
}
