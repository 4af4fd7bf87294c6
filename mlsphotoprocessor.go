// Package mlsphotoprocessor classifies real-estate listing photos by room
// type and files them under MLS naming conventions.
//
// Classification is deterministic where it can be: a vision-language model
// scores a fixed object vocabulary, hard rules (plumbing fixtures, beds,
// desks, laundry pairs) and heuristic rules (kitchen, dining room, living
// room combinations) decide from those detections, and only unresolved
// photos fall back to the model's scene confidence. A photo that defeats
// every layer is filed as OTHER, never dropped.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		processor "github.com/menta2k/mls-photo-processor"
//		"github.com/menta2k/mls-photo-processor/pkg/ollama"
//	)
//
//	func main() {
//		client, err := ollama.NewClient("http://localhost:11434")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		p := processor.New(client, "qwen2.5vl")
//
//		result, err := p.ClassifyFile(context.Background(), "photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s (decided by %s)\n", result.Label, result.DecidedBy)
//	}
//
// The package consists of these components:
//
// 1. Clients (pkg/ollama, pkg/llamacpp): vision model transports
// 2. Detection (pkg/detection): prompts, vocabulary, score normalization
// 3. Rules (pkg/rules): ordered hard and heuristic rule tiers
// 4. Classifier (pkg/classifier): orchestration and scene fallback
// 5. Batch (pkg/batch): folder runs with parcel matching and renaming
//
// Batch runs pair photos with county parcel data (pkg/matcher), copy them to
// "ACCOUNTNO - MLS - ROOMTYPE N.JPG" names (pkg/renamer), and can audit every
// decision to sqlite (internal/ledger).
package mlsphotoprocessor

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/mls-photo-processor/pkg/batch"
	"github.com/menta2k/mls-photo-processor/pkg/classifier"
	"github.com/menta2k/mls-photo-processor/pkg/client"
	"github.com/menta2k/mls-photo-processor/pkg/detection"
	"github.com/menta2k/mls-photo-processor/pkg/processing"
	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// Version of the photo processor library
const Version = "1.0.0"

// PhotoProcessor provides a high-level interface for classifying and filing
// listing photos.
type PhotoProcessor struct {
	adapter    *detection.Adapter
	classifier *classifier.Classifier
	batch      *batch.Processor
	loader     *processing.Processor
}

// New creates a PhotoProcessor with default thresholds around the given
// vision client and model.
func New(vc client.VisionClient, model string) *PhotoProcessor {
	adapter := detection.NewAdapter(vc, detection.AdapterConfig{Model: model})
	cls := classifier.New(adapter)

	return &PhotoProcessor{
		adapter:    adapter,
		classifier: cls,
		batch:      batch.New(cls, batch.Config{}),
		loader:     processing.NewProcessor(),
	}
}

// NewWithConfig creates a PhotoProcessor with custom configuration for each
// stage. Invalid thresholds are rejected here, before any image is touched.
func NewWithConfig(vc client.VisionClient, adapterCfg detection.AdapterConfig, classifierCfg classifier.Config, batchCfg batch.Config) (*PhotoProcessor, error) {
	adapter := detection.NewAdapter(vc, adapterCfg)

	cls, err := classifier.NewWithConfig(adapter, nil, classifierCfg)
	if err != nil {
		return nil, err
	}

	return &PhotoProcessor{
		adapter:    adapter,
		classifier: cls,
		batch:      batch.New(cls, batchCfg),
		loader:     processing.NewProcessor(),
	}, nil
}

// SetMatcher installs a parcel-to-account matcher for batch runs.
func (p *PhotoProcessor) SetMatcher(m batch.AccountMatcher) {
	p.batch.SetMatcher(m)
}

// SetAuditLog installs an audit sink that receives every finished run report.
func (p *PhotoProcessor) SetAuditLog(a batch.AuditLog) {
	p.batch.SetAuditLog(a)
}

// Classify labels one decoded photo. It never fails; a photo the model
// cannot score is filed as OTHER with the failure noted in the result.
func (p *PhotoProcessor) Classify(ctx context.Context, img image.Image) types.ClassificationResult {
	return p.classifier.Classify(ctx, img)
}

// ClassifyFile loads a photo from disk, corrects its EXIF orientation, and
// classifies it.
func (p *PhotoProcessor) ClassifyFile(ctx context.Context, path string) (types.ClassificationResult, error) {
	img, err := p.loader.LoadImageOriented(path)
	if err != nil {
		return types.ClassificationResult{}, fmt.Errorf("failed to load image: %w", err)
	}
	return p.classifier.Classify(ctx, img), nil
}

// ProcessFolder classifies every photo directly inside folderPath and files
// the results into outputDir. See the batch package for report semantics.
func (p *PhotoProcessor) ProcessFolder(ctx context.Context, folderPath, outputDir string) (*batch.Report, error) {
	return p.batch.ProcessFolder(ctx, folderPath, outputDir)
}

// ProbeVision asks the model to describe an image in free text. Useful to
// confirm the deployed model actually receives pixels before a long run.
func (p *PhotoProcessor) ProbeVision(ctx context.Context, img image.Image) (string, error) {
	return p.adapter.ProbeVision(ctx, img)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
