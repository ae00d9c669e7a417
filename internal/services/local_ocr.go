package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os/exec"
	"strings"

	"github.com/nkashima/vgc-scout/backend/internal/ev"
)

// LocalOCRService reads team images with a local Tesseract install. It is
// the offline fallback when Gemini vision is not configured; rental cards
// render EVs in plain slash notation, which survives OCR well enough.
type LocalOCRService struct {
	tesseractPath string
	language      string
}

// NewLocalOCRService creates a new local OCR service
func NewLocalOCRService() *LocalOCRService {
	// Find tesseract in PATH
	tesseractPath, err := exec.LookPath("tesseract")
	if err != nil {
		tesseractPath = "tesseract" // Will fail at runtime if not found
	}

	return &LocalOCRService{
		tesseractPath: tesseractPath,
		language:      "jpn+eng", // Rental cards mix Japanese names with digits
	}
}

// IsAvailable checks if Tesseract is available on the system
func (s *LocalOCRService) IsAvailable() bool {
	cmd := exec.Command(s.tesseractPath, "--version")
	err := cmd.Run()
	return err == nil
}

// ExtractText runs Tesseract over raw image bytes and returns the text.
func (s *LocalOCRService) ExtractText(ctx context.Context, imageData []byte) (string, error) {
	// Verify this is a valid image before handing it to the subprocess
	_, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("invalid image data: %w", err)
	}

	cmd := exec.CommandContext(
		ctx,
		s.tesseractPath,
		"stdin", // Read from stdin
		"stdout",
		"-l", s.language,
		"--psm", "3", // Fully automatic page segmentation
		"--oem", "3", // Default OCR Engine Mode (LSTM + Legacy)
	)

	cmd.Stdin = bytes.NewReader(imageData)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract error: %w - %s", err, stderr.String())
	}

	return stdout.String(), nil
}

// ExtractSpreads OCRs one image and pulls every line that reads as a real
// EV notation through the extraction core. Slots are assigned in reading
// order since OCR text carries no slot numbering.
func (s *LocalOCRService) ExtractSpreads(ctx context.Context, imageData []byte) ([]ev.ImageSpread, error) {
	text, err := s.ExtractText(ctx, imageData)
	if err != nil {
		return nil, err
	}

	var spreads []ev.ImageSpread
	for _, line := range splitAndCleanLines(text) {
		spread, provenance := ev.ExtractSpread(line)
		if provenance.IsDefault() {
			continue
		}
		spreads = append(spreads, ev.ImageSpread{
			Slot:   len(spreads) + 1,
			Spread: spread,
			Total:  spread.Total(),
			Valid:  true,
			Raw:    line,
		})
		if len(spreads) == 6 {
			break
		}
	}

	debugLog("Local OCR: %d chars of text, %d spread lines", len(text), len(spreads))
	return spreads, nil
}

// splitAndCleanLines splits text into lines and removes empty/whitespace lines
func splitAndCleanLines(text string) []string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
