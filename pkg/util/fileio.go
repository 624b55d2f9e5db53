// Package util provides checkpointing and file I/O helpers.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// FileWriter writes output files under a single directory.
type FileWriter struct {
	outputDir string
}

// NewFileWriter creates a file writer, creating the output directory if
// needed.
func NewFileWriter(outputDir string) (*FileWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileWriter{outputDir: outputDir}, nil
}

// WriteFile writes content under the output directory, sanitizing the
// filename first.
func (fw *FileWriter) WriteFile(filename, content string) error {
	path := filepath.Join(fw.outputDir, SanitizeFilename(filename))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// OutputDir returns the output directory path.
func (fw *FileWriter) OutputDir() string {
	return fw.outputDir
}

// SanitizeFilename removes or replaces invalid filename characters.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")

	if len(name) > 200 {
		name = name[:200]
	}
	if name == "" {
		name = "unnamed"
	}
	return name
}
