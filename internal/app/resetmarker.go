package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dose-go/internal/dose"
)

// resetFile keeps the local date of the last daily reset as "YYYY-MM-DD".
type resetFile struct {
	path string
}

var _ dose.ResetMarker = resetFile{}

func (f resetFile) LastReset() (dose.Date, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return dose.Date{}, false, nil
		}
		return dose.Date{}, false, fmt.Errorf("reading %s: %w", f.path, err)
	}
	day, err := dose.ParseDate(strings.TrimSpace(string(data)))
	if err != nil {
		return dose.Date{}, false, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return day, true, nil
}

func (f resetFile) MarkReset(day dose.Date) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(day.String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}
