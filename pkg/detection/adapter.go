package detection

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/menta2k/mls-photo-processor/pkg/client"
	"github.com/menta2k/mls-photo-processor/pkg/processing"
	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// ObjectVocabulary is the closed set of object keywords the adapter scores.
// Rule predicates may only reference names from this list.
var ObjectVocabulary = []string{
	"toilet",
	"bathtub",
	"shower",
	"sink",
	"bed",
	"desk",
	"chair",
	"computer",
	"washer",
	"dryer",
	"refrigerator",
	"stove",
	"cabinets",
	"table",
	"couch",
	"sofa",
	"tv",
	"fireplace",
}

// VisionProbePrompt checks that the model can actually see the image.
const VisionProbePrompt = `What do you see in this image? Describe it briefly.`

const objectPromptTemplate = `You are an object presence scorer for real-estate photos.

Score how confident you are that each of these objects is visible in the image:
%s

Return JSON only: one key per object listed above, each value a confidence
between 0.0 and 1.0.
Example: {"toilet": 0.95, "bed": 0.02}

HARD RULES
- Score every listed object, even when the score is 0.0.
- Use the object names exactly as listed. Do not add other keys.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

const scenePromptTemplate = `You are a room-type scorer for real-estate photos.

Score how confident you are that the photo shows each of these room types:
%s

Return JSON only: one key per room type listed above, each value a confidence
between 0.0 and 1.0.
Example: {"kitchen": 0.85, "bathroom": 0.03}

HARD RULES
- Score every listed room type, even when the score is 0.0.
- Use the room type names exactly as listed. Do not add extra keys.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// ObjectPrompt is the full object scoring prompt sent to the model.
var ObjectPrompt = fmt.Sprintf(objectPromptTemplate, strings.Join(ObjectVocabulary, ", "))

// ScenePrompt is the full scene scoring prompt sent to the model.
var ScenePrompt = fmt.Sprintf(scenePromptTemplate, strings.Join(scenePhrases(), ", "))

func scenePhrases() []string {
	labels := types.SceneLabels()
	phrases := make([]string, len(labels))
	for i, l := range labels {
		phrases[i] = strings.ToLower(l.String())
	}
	return phrases
}

// AdapterConfig controls which model the adapter talks to and how images are
// encoded for transport.
type AdapterConfig struct {
	Model       string
	SendFormat  string // "jpg" or "png"
	SendMaxDim  int    // longest side before resize, 0 disables
	SendQuality int    // JPEG quality for transport encoding
}

// Adapter exposes the two scoring capabilities of a vision model: object
// presence over ObjectVocabulary and scene confidence over the room labels.
// Scores are raw; thresholding happens in Normalize.
type Adapter struct {
	client    client.VisionClient
	processor *processing.Processor
	cfg       AdapterConfig

	// The model handles one request at a time; concurrent callers queue here.
	mu sync.Mutex
}

// NewAdapter creates an adapter around a vision client.
func NewAdapter(vc client.VisionClient, cfg AdapterConfig) *Adapter {
	if cfg.SendFormat == "" {
		cfg.SendFormat = "jpg"
	}
	if cfg.SendQuality <= 0 {
		cfg.SendQuality = 85
	}
	return &Adapter{
		client:    vc,
		processor: processing.NewProcessor(),
		cfg:       cfg,
	}
}

// DetectObjects scores the object vocabulary against the image. The result
// contains only vocabulary keys, with scores clamped to [0,1]. Failures are
// reported as *types.InferenceError.
func (a *Adapter) DetectObjects(ctx context.Context, img image.Image) (types.KeywordScores, error) {
	imgB64, err := a.processor.PrepareImageForModel(img, a.cfg.SendFormat, a.cfg.SendMaxDim, a.cfg.SendQuality)
	if err != nil {
		return nil, &types.InferenceError{Op: "detect objects", Err: err}
	}

	a.mu.Lock()
	raw, err := a.client.ScoreKeywords(ctx, a.cfg.Model, ObjectPrompt, imgB64)
	a.mu.Unlock()
	if err != nil {
		slog.Debug("photoproc: object scoring failed", "model", a.cfg.Model, "error", err.Error())
		return nil, &types.InferenceError{Op: "detect objects", Err: err}
	}

	scores := make(types.KeywordScores, len(ObjectVocabulary))
	for _, name := range ObjectVocabulary {
		if score, ok := raw[name]; ok {
			scores[name] = clampScore(score)
		}
	}
	slog.Debug("photoproc: scored objects", "model", a.cfg.Model, "returned", len(raw), "kept", len(scores))
	return scores, nil
}

// ScoreScenes scores the nine scene labels against the image. Keys the model
// invents are dropped; OTHER is never scored. Failures are reported as
// *types.InferenceError.
func (a *Adapter) ScoreScenes(ctx context.Context, img image.Image) (types.SceneScores, error) {
	imgB64, err := a.processor.PrepareImageForModel(img, a.cfg.SendFormat, a.cfg.SendMaxDim, a.cfg.SendQuality)
	if err != nil {
		return nil, &types.InferenceError{Op: "score scenes", Err: err}
	}

	a.mu.Lock()
	raw, err := a.client.ScoreKeywords(ctx, a.cfg.Model, ScenePrompt, imgB64)
	a.mu.Unlock()
	if err != nil {
		slog.Debug("photoproc: scene scoring failed", "model", a.cfg.Model, "error", err.Error())
		return nil, &types.InferenceError{Op: "score scenes", Err: err}
	}

	scores := make(types.SceneScores, len(raw))
	for phrase, score := range raw {
		label, ok := types.ParseRoomLabel(phrase)
		if !ok || label == types.Other {
			continue
		}
		scores[label] = clampScore(score)
	}
	slog.Debug("photoproc: scored scenes", "model", a.cfg.Model, "returned", len(raw), "kept", len(scores))
	return scores, nil
}

// ProbeVision sends a plain descriptive prompt with the image and returns the
// model's answer. Used to verify the model can see images before a batch run.
func (a *Adapter) ProbeVision(ctx context.Context, img image.Image) (string, error) {
	imgB64, err := a.processor.PrepareImageForModel(img, a.cfg.SendFormat, a.cfg.SendMaxDim, a.cfg.SendQuality)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client.SimpleQuery(ctx, a.cfg.Model, VisionProbePrompt, imgB64)
}

// clampScore bounds a model score to [0,1]. NaN collapses to 0.
func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
