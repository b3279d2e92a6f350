package evidence

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OCREngine recognizes text in image data. Available reports whether the
// engine can actually run; callers fall back to empty text when it cannot.
type OCREngine interface {
	Available() bool
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// Tesseract shells out to the tesseract binary when it is installed.
type Tesseract struct {
	binary string
}

// NewTesseract locates the tesseract binary on PATH. The returned engine
// reports unavailable when the binary is missing.
func NewTesseract() *Tesseract {
	binary, err := exec.LookPath("tesseract")
	if err != nil {
		return &Tesseract{}
	}
	return &Tesseract{binary: binary}
}

func (t *Tesseract) Available() bool {
	return t.binary != ""
}

func (t *Tesseract) Recognize(ctx context.Context, imageData []byte) (string, error) {
	if t.binary == "" {
		return "", fmt.Errorf("tesseract not installed")
	}

	dir, err := os.MkdirTemp("", "ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "input.png")
	if err := os.WriteFile(path, imageData, 0o600); err != nil {
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.binary, path, "stdout", "-l", "eng")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// NoOCR is the engine used when text recognition is disabled.
type NoOCR struct{}

func (NoOCR) Available() bool {
	return false
}

func (NoOCR) Recognize(context.Context, []byte) (string, error) {
	return "", fmt.Errorf("ocr disabled")
}
