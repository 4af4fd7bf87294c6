// Package batch drives the whole per-folder workflow: parcel extraction,
// account matching, PDF renaming, image validation, optional duplicate
// removal, classification across a worker pool, and the final copy into
// "ACCOUNTNO - MLS - ROOMTYPE N.JPG" names.
package batch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/mls-photo-processor/internal/utils"
	"github.com/menta2k/mls-photo-processor/pkg/matcher"
	"github.com/menta2k/mls-photo-processor/pkg/processing"
	"github.com/menta2k/mls-photo-processor/pkg/renamer"
	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// UnknownAccount is the account placeholder when no parcel match is found.
// PDFs are never renamed under it; images still get classified and filed.
const UnknownAccount = "UNKNOWN"

// DefaultWorkers is the classification pool size when Config.Workers is unset.
const DefaultWorkers = 4

// Config tunes a batch run.
type Config struct {
	// Workers is the number of concurrent classification workers. The model
	// adapter serializes inference itself, so extra workers only overlap
	// image decode and prompt preparation.
	Workers int

	// Dedup enables perceptual duplicate removal before classification.
	Dedup bool

	// DedupThreshold is the hash distance below which two images count as
	// duplicates. Zero selects the processing package default.
	DedupThreshold int

	// JPEGQuality is the encoder quality for converted images. Zero selects
	// the renamer default.
	JPEGQuality int
}

// Classifier labels one decoded photo. Implementations never fail; an
// unclassifiable image comes back as OTHER with provenance explaining why.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) types.ClassificationResult
}

// AccountMatcher resolves a parcel number to an account number.
type AccountMatcher interface {
	Match(parcelNo string) (string, bool)
}

// AuditLog receives the finished report of every run. Recording failures are
// logged and ignored; auditing never fails a run.
type AuditLog interface {
	RecordRun(report *Report) error
}

// FileResult describes one successfully filed photo.
type FileResult struct {
	OriginalFile   string                     `json:"original_file"`
	NewFilename    string                     `json:"new_filename"`
	Classification types.ClassificationResult `json:"classification"`
	SavedPath      string                     `json:"saved_path"`
}

// Report summarizes a folder run. Errors and SkippedFiles collect everything
// that went wrong without stopping the run.
type Report struct {
	RunID          string       `json:"run_id"`
	Folder         string       `json:"folder"`
	AccountNo      string       `json:"account_no"`
	ParcelNo       string       `json:"parcel_no"`
	ProcessedCount int          `json:"processed_count"`
	Errors         []string     `json:"errors"`
	SkippedFiles   []string     `json:"skipped_files"`
	Results        []FileResult `json:"results"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
}

// Processor runs folders end to end.
type Processor struct {
	classifier Classifier
	accounts   AccountMatcher
	audit      AuditLog
	namer      *renamer.Renamer
	loader     *processing.Processor
	cfg        Config
}

// New creates a batch processor around a classifier.
func New(c Classifier, cfg Config) *Processor {
	return &Processor{
		classifier: c,
		namer:      renamer.New(cfg.JPEGQuality),
		loader:     processing.NewProcessor(),
		cfg:        cfg,
	}
}

// SetMatcher installs the parcel-to-account matcher. Without one every run
// files under the UNKNOWN account.
func (p *Processor) SetMatcher(m AccountMatcher) {
	p.accounts = m
}

// SetAuditLog installs an audit sink for finished reports.
func (p *Processor) SetAuditLog(a AuditLog) {
	p.audit = a
}

// ProcessFolder classifies and files every photo directly inside folderPath
// into outputDir. Per-file problems are recorded in the report and the run
// continues; the returned error is reserved for an unreadable folder or a
// cancelled context.
func (p *Processor) ProcessFolder(ctx context.Context, folderPath, outputDir string) (*Report, error) {
	info, err := os.Stat(folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", folderPath)
	}

	report := &Report{
		RunID:        uuid.NewString(),
		Folder:       folderPath,
		AccountNo:    UnknownAccount,
		Errors:       []string{},
		SkippedFiles: []string{},
		Results:      []FileResult{},
		StartedAt:    time.Now().UTC(),
	}

	report.ParcelNo = matcher.ExtractParcelNumber(filepath.Base(filepath.Clean(folderPath)))
	if report.ParcelNo == "" {
		report.Errors = append(report.Errors, "could not extract parcel number from folder name")
	} else if p.accounts != nil {
		if account, ok := p.accounts.Match(report.ParcelNo); ok {
			report.AccountNo = account
			slog.Debug("photoproc: matched parcel", "parcel", report.ParcelNo, "account", account)
		} else {
			report.Errors = append(report.Errors, "no account match found for parcel: "+report.ParcelNo)
		}
	}

	p.handlePDFs(folderPath, outputDir, report)

	candidates, err := utils.ListImageFiles(folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}
	if len(candidates) == 0 {
		report.Errors = append(report.Errors, "no image files found in folder")
		return p.finish(report), nil
	}

	valid := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if err := p.loader.ValidateFile(path); err != nil {
			report.SkippedFiles = append(report.SkippedFiles, filepath.Base(path))
			report.Errors = append(report.Errors, "failed to load image: "+filepath.Base(path))
			continue
		}
		valid = append(valid, path)
	}
	if len(valid) == 0 {
		report.Errors = append(report.Errors, "no valid images after validation")
		return p.finish(report), nil
	}

	if p.cfg.Dedup {
		valid = p.dropDuplicates(valid, report)
	}

	classified, err := p.classifyAll(ctx, valid, report)
	if err != nil {
		return nil, err
	}

	grouped := make(map[types.RoomLabel][]string, len(classified))
	for path, res := range classified {
		grouped[res.Label] = append(grouped[res.Label], path)
	}

	// Labels in canonical order and paths in name order, so indexes are
	// stable no matter which worker finished first.
	for _, label := range types.CanonicalLabels() {
		paths := grouped[label]
		if len(paths) == 0 {
			continue
		}
		sort.Strings(paths)

		for i, path := range paths {
			filename := renamer.GenerateFilename(report.AccountNo, label, i+1)
			saved, err := p.namer.PlaceImage(path, outputDir, filename)
			if err != nil {
				report.Errors = append(report.Errors, "failed to copy image: "+filepath.Base(path))
				continue
			}
			report.ProcessedCount++
			report.Results = append(report.Results, FileResult{
				OriginalFile:   filepath.Base(path),
				NewFilename:    filename,
				Classification: classified[path],
				SavedPath:      saved,
			})
		}
	}

	return p.finish(report), nil
}

// handlePDFs copies folder PDFs to ACCOUNTNO.PDF. Without a matched account
// there is nothing sensible to call them, so they are skipped.
func (p *Processor) handlePDFs(folderPath, outputDir string, report *Report) {
	pdfs, err := utils.ListPDFFiles(folderPath)
	if err != nil {
		report.Errors = append(report.Errors, "failed to scan folder for PDFs")
		return
	}

	for _, pdf := range pdfs {
		if report.AccountNo == UnknownAccount {
			report.SkippedFiles = append(report.SkippedFiles, filepath.Base(pdf))
			continue
		}
		if _, err := p.namer.RenamePDF(pdf, report.AccountNo, outputDir); err != nil {
			report.Errors = append(report.Errors, "failed to rename PDF: "+filepath.Base(pdf))
		}
	}
}

// dropDuplicates removes perceptual duplicates, keeping the first of each
// group in name order. Images that fail to decode here stay in the batch;
// classification deals with them.
func (p *Processor) dropDuplicates(paths []string, report *Report) []string {
	filter := processing.NewDuplicateFilter(p.cfg.DedupThreshold)

	kept := make([]string, 0, len(paths))
	for _, path := range paths {
		img, err := p.loader.LoadImage(path)
		if err != nil {
			kept = append(kept, path)
			continue
		}
		if filter.IsDuplicate(img) {
			report.SkippedFiles = append(report.SkippedFiles, filepath.Base(path))
			slog.Debug("photoproc: dropped duplicate image", "file", filepath.Base(path))
			continue
		}
		kept = append(kept, path)
	}
	return kept
}

type outcome struct {
	path   string
	result types.ClassificationResult
	err    error
}

// classifyAll labels every path using a worker pool. A cancelled context
// stops feeding work; whatever is in flight completes and is discarded.
func (p *Processor) classifyAll(ctx context.Context, paths []string, report *Report) (map[string]types.ClassificationResult, error) {
	workers := p.cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				img, err := p.loader.LoadImageOriented(path)
				if err != nil {
					outcomes <- outcome{path: path, err: err}
					continue
				}
				outcomes <- outcome{path: path, result: p.classifier.Classify(ctx, img)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	classified := make(map[string]types.ClassificationResult, len(paths))
	for out := range outcomes {
		if out.err != nil {
			report.SkippedFiles = append(report.SkippedFiles, filepath.Base(out.path))
			report.Errors = append(report.Errors, "failed to load image: "+filepath.Base(out.path))
			continue
		}
		classified[out.path] = out.result
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return classified, nil
}

// finish stamps the report and hands it to the audit log.
func (p *Processor) finish(report *Report) *Report {
	report.FinishedAt = time.Now().UTC()

	if p.audit != nil {
		if err := p.audit.RecordRun(report); err != nil {
			slog.Warn("photoproc: failed to record audit run", "run_id", report.RunID, "error", err)
		}
	}

	slog.Debug("photoproc: run complete",
		"run_id", report.RunID,
		"account", report.AccountNo,
		"processed", report.ProcessedCount,
		"errors", len(report.Errors),
		"skipped", len(report.SkippedFiles))
	return report
}
