package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"photo.jpeg", true},
		{"photo.jfif", true},
		{"photo.png", true},
		{"photo.webp", true},
		{"photo.WEBP", true},
		{"scan.pdf", false},
		{"photo.gif", false},
		{"photo.bmp", false},
		{"photo.tiff", false},
		{"photo", false},
		{"photo.jpg.txt", false},
	}

	for _, tt := range tests {
		if got := IsImageFile(tt.filename); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestIsPDFFile(t *testing.T) {
	if !IsPDFFile("deed.pdf") || !IsPDFFile("DEED.PDF") {
		t.Error("PDF extensions should match case-insensitively")
	}
	if IsPDFFile("photo.jpg") || IsPDFFile("deed") {
		t.Error("Non-PDF names must not match")
	}
}

func TestListImageFilesTopLevelOnly(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"b.jpg", "a.png", "c.webp", "notes.txt", "deed.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	// Nested images must be ignored.
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "hidden.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write nested: %v", err)
	}

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "c.webp"),
	}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %d: %v", len(want), len(files), files)
	}
	for i, w := range want {
		if files[i] != w {
			t.Errorf("File %d: expected %s, got %s", i, w, files[i])
		}
	}
}

func TestListPDFFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"deed.pdf", "photo.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, err := ListPDFFiles(dir)
	if err != nil {
		t.Fatalf("ListPDFFiles failed: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "deed.pdf" {
		t.Errorf("Expected only deed.pdf, got %v", files)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !DirExists(dir) {
		t.Error("Directory was not created")
	}

	// Second call on an existing directory is a no-op.
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir on existing dir failed: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !FileExists(path) {
		t.Error("Existing file reported as missing")
	}
	if FileExists(filepath.Join(dir, "missing.txt")) {
		t.Error("Missing file reported as existing")
	}
	if FileExists(dir) {
		t.Error("Directory must not count as a file")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"R123456789", "R123456789"},
		{"a/b\\c:d", "a_b_c_d"},
		{"photo?.jpg", "photo_.jpg"},
		{" .name. ", "name"},
		{"<x>|\"y\"", "_x___y_"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetFileExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a.JPG", "jpg"},
		{"a.tar.gz", "gz"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := GetFileExtension(tt.in); got != tt.want {
			t.Errorf("GetFileExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
