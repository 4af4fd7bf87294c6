package main

import (
	"context"
	"encoding/json"
	"flag"
	"image"
	"image/color"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	processor "github.com/menta2k/mls-photo-processor"
	"github.com/menta2k/mls-photo-processor/internal/config"
	"github.com/menta2k/mls-photo-processor/internal/ledger"
	"github.com/menta2k/mls-photo-processor/pkg/batch"
	"github.com/menta2k/mls-photo-processor/pkg/classifier"
	"github.com/menta2k/mls-photo-processor/pkg/client"
	"github.com/menta2k/mls-photo-processor/pkg/detection"
	"github.com/menta2k/mls-photo-processor/pkg/llamacpp"
	"github.com/menta2k/mls-photo-processor/pkg/matcher"
	"github.com/menta2k/mls-photo-processor/pkg/ollama"
)

// Default server URLs per backend
const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultLlamaCppURL = "http://localhost:8080"
)

func main() {
	def := config.Default()

	var in, outDir, configPath string
	var backendKind, model, url string
	var csvPath, ledgerPath string
	var workers int
	var dedup bool
	var detectionThr, fallbackThr float64
	var probe bool

	flag.StringVar(&in, "in", "", "input folder with listing photos")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&configPath, "config", "", "JSON config file (env and flags override it)")

	flag.StringVar(&backendKind, "backend", def.Backend.Kind, "backend to use: ollama or llamacpp")
	flag.StringVar(&model, "model", def.Backend.Model, "model name")
	flag.StringVar(&url, "url", def.Backend.ServerURL, "server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")

	flag.StringVar(&csvPath, "csv", "", "parcel CSV with ACCOUNTNO and PARCELNO columns")
	flag.StringVar(&ledgerPath, "ledger", "", "sqlite audit ledger path (empty disables auditing)")

	flag.IntVar(&workers, "workers", def.Batch.Workers, "concurrent classification workers")
	flag.BoolVar(&dedup, "dedup", def.Batch.Dedup, "drop perceptual duplicates before classifying")

	flag.Float64Var(&detectionThr, "detection", def.Classifier.DetectionThreshold, "object detection threshold (0-1)")
	flag.Float64Var(&fallbackThr, "fallback", def.Classifier.FallbackThreshold, "scene fallback threshold (0-1)")

	flag.BoolVar(&probe, "probe", false, "send a test image to the model, print its reply, and exit")

	flag.Parse()

	// Precedence: defaults, then config file, then environment, then flags
	// the user actually set.
	cfg := def
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}

	var urlSet, backendSet bool
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend.Kind = backendKind
			backendSet = true
		case "model":
			cfg.Backend.Model = model
		case "url":
			cfg.Backend.ServerURL = url
			urlSet = true
		case "csv":
			cfg.Batch.CSVPath = csvPath
		case "ledger":
			cfg.Batch.LedgerPath = ledgerPath
		case "workers":
			cfg.Batch.Workers = workers
		case "dedup":
			cfg.Batch.Dedup = dedup
		case "detection":
			cfg.Classifier.DetectionThreshold = detectionThr
		case "fallback":
			cfg.Classifier.FallbackThreshold = fallbackThr
		}
	})
	if backendSet && !urlSet {
		switch cfg.Backend.Kind {
		case config.BackendOllama:
			cfg.Backend.ServerURL = defaultOllamaURL
		case config.BackendLlamaCpp:
			cfg.Backend.ServerURL = defaultLlamaCppURL
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var visionClient client.VisionClient
	var err error

	switch cfg.Backend.Kind {
	case config.BackendOllama:
		visionClient, err = ollama.NewClient(cfg.Backend.ServerURL)
		if err != nil {
			log.Fatalf("Failed to create Ollama client: %v", err)
		}
	case config.BackendLlamaCpp:
		visionClient, err = llamacpp.NewClient(cfg.Backend.ServerURL)
		if err != nil {
			log.Fatalf("Failed to create llama.cpp client: %v", err)
		}
	}

	p, err := processor.NewWithConfig(visionClient,
		detection.AdapterConfig{
			Model:       cfg.Backend.Model,
			SendFormat:  cfg.Backend.SendFormat,
			SendMaxDim:  cfg.Backend.SendMaxDim,
			SendQuality: cfg.Backend.SendQuality,
		},
		classifier.Config{
			DetectionThreshold: cfg.Classifier.DetectionThreshold,
			FallbackThreshold:  cfg.Classifier.FallbackThreshold,
		},
		batch.Config{
			Workers:        cfg.Batch.Workers,
			Dedup:          cfg.Batch.Dedup,
			DedupThreshold: cfg.Batch.DedupThreshold,
			JPEGQuality:    cfg.Batch.JPEGQuality,
		})
	if err != nil {
		log.Fatalf("Failed to initialize processor: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if probe {
		reply, err := p.ProbeVision(ctx, probeImage())
		if err != nil {
			log.Fatalf("Vision probe failed: %v", err)
		}
		log.Printf("model reply: %s", reply)
		return
	}

	if in == "" {
		log.Fatalf("usage: %s -in photo_folder [-out outdir] [-csv parcels.csv] [-backend ollama|llamacpp] [-url server_url] [-ledger audit.db] [-workers n] [-dedup]", filepath.Base(os.Args[0]))
	}

	if cfg.Batch.CSVPath != "" {
		m, err := matcher.NewParcelMatcher(cfg.Batch.CSVPath)
		if err != nil {
			log.Fatalf("Failed to load parcel CSV: %v", err)
		}
		log.Printf("loaded %d parcel mappings from %s", m.Len(), cfg.Batch.CSVPath)
		p.SetMatcher(m)
	}

	if cfg.Batch.LedgerPath != "" {
		l, err := ledger.Open(cfg.Batch.LedgerPath)
		if err != nil {
			log.Fatalf("Failed to open audit ledger: %v", err)
		}
		defer l.Close()
		p.SetAuditLog(l)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	report, err := p.ProcessFolder(ctx, in, outDir)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("account=%s parcel=%s processed=%d skipped=%d errors=%d",
		report.AccountNo, report.ParcelNo, report.ProcessedCount,
		len(report.SkippedFiles), len(report.Errors))
	for _, res := range report.Results {
		log.Printf("wrote %s", res.SavedPath)
	}
	for _, e := range report.Errors {
		log.Printf("error: %s", e)
	}

	// Save the full run report next to the renamed photos
	js, _ := json.MarshalIndent(report, "", "  ")
	_ = os.WriteFile(filepath.Join(outDir, "report.json"), js, 0o644)
}

// probeImage builds a small gradient so the probe does not depend on any
// photo being available.
func probeImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 160, A: 255})
		}
	}
	return img
}
