// Package renamer files classified photos into the output folder under the
// "ACCOUNTNO - MLS - ROOMTYPE N.JPG" convention, and account-stamps any
// accompanying PDFs.
package renamer

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/mls-photo-processor/internal/utils"
	"github.com/menta2k/mls-photo-processor/pkg/processing"
	"github.com/menta2k/mls-photo-processor/pkg/types"
)

// DefaultJPEGQuality is the encoder quality for converted images.
const DefaultJPEGQuality = 95

// Renamer copies or converts photos into their final names.
type Renamer struct {
	processor   *processing.Processor
	jpegQuality int
}

// New creates a renamer. A non-positive quality selects DefaultJPEGQuality.
func New(jpegQuality int) *Renamer {
	if jpegQuality <= 0 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Renamer{
		processor:   processing.NewProcessor(),
		jpegQuality: jpegQuality,
	}
}

// GenerateFilename builds the output name: ACCOUNTNO - MLS - ROOMTYPE N.JPG,
// all caps with spaces around the dashes. Labels outside the canonical set
// coerce to OTHER rather than leak arbitrary text into filenames.
func GenerateFilename(accountNo string, label types.RoomLabel, index int) string {
	if !label.Valid() {
		label = types.Other
	}
	account := strings.ToUpper(strings.TrimSpace(accountNo))
	return fmt.Sprintf("%s - MLS - %s %d.JPG", account, label, index)
}

// CopyImage copies the source file into destDir under filename, resolving
// name collisions with _1, _2 suffixes. Returns the final path.
func (r *Renamer) CopyImage(srcPath, destDir, filename string) (string, error) {
	if err := utils.EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	destPath := nextAvailablePath(destDir, filename)

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to copy %s: %w", srcPath, err)
	}

	slog.Debug("photoproc: copied image", "from", filepath.Base(srcPath), "to", filepath.Base(destPath))
	return destPath, nil
}

// ConvertToJPEG decodes the source image, bakes in its EXIF orientation,
// flattens any transparency onto white, and writes a JPEG into destDir under
// filename (with collision suffixes). PNG and WebP sources go through here so
// a file named .JPG always holds JPEG bytes.
func (r *Renamer) ConvertToJPEG(srcPath, destDir, filename string) (string, error) {
	if err := utils.EnsureDir(destDir); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	img, err := r.processor.LoadImageOriented(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", srcPath, err)
	}

	destPath := nextAvailablePath(destDir, filename)

	if err := imaging.Save(Flatten(img), destPath, imaging.JPEGQuality(r.jpegQuality)); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", destPath, err)
	}

	slog.Debug("photoproc: converted image", "from", filepath.Base(srcPath), "to", filepath.Base(destPath))
	return destPath, nil
}

// PlaceImage copies JPEG-family sources verbatim and converts everything
// else, so the output folder contains only real JPEGs.
func (r *Renamer) PlaceImage(srcPath, destDir, filename string) (string, error) {
	switch utils.GetFileExtension(srcPath) {
	case "jpg", "jpeg", "jfif":
		return r.CopyImage(srcPath, destDir, filename)
	default:
		return r.ConvertToJPEG(srcPath, destDir, filename)
	}
}

// RenamePDF copies a PDF into destDir as ACCOUNTNO.PDF, resolving collisions
// with _1, _2 suffixes.
func (r *Renamer) RenamePDF(pdfPath, accountNo, destDir string) (string, error) {
	account := strings.ToUpper(strings.TrimSpace(accountNo))
	filename := utils.SanitizeFilename(account) + ".PDF"
	return r.CopyImage(pdfPath, destDir, filename)
}

// Flatten composites an image onto a white background when it carries
// transparency. Opaque images pass through untouched.
func Flatten(img image.Image) image.Image {
	type opaquer interface {
		Opaque() bool
	}
	if o, ok := img.(opaquer); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// nextAvailablePath returns destDir/filename, inserting _1, _2... before the
// extension until the name is free.
func nextAvailablePath(destDir, filename string) string {
	path := filepath.Join(destDir, filename)
	if !utils.FileExists(path) {
		return path
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for counter := 1; ; counter++ {
		candidate := filepath.Join(destDir, fmt.Sprintf("%s_%d%s", base, counter, ext))
		if !utils.FileExists(candidate) {
			return candidate
		}
	}
}
