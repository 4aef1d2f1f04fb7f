package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"canvas-export/internal/providers/canvas"
)

// writeJSON serializes v to path, creating parent directories as needed.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// writeCoursesJSON writes the raw course listing keyed by course id, the
// shape downstream tooling expects from courses.json.
func writeCoursesJSON(path string, courses []canvas.Course) error {
	byID := make(map[int]canvas.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return writeJSON(path, byID)
}
