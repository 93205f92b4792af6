package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dose-go/internal/dose"
)

// permissionFile keeps a granted/denied decision as a one-word file.
// A missing file means the user has not decided.
type permissionFile struct {
	path string
}

func (f permissionFile) load() dose.Permission {
	if f.path == "" {
		return dose.PermissionDefault
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return dose.PermissionDefault
	}
	p, err := dose.ParsePermission(strings.TrimSpace(string(data)))
	if err != nil {
		return dose.PermissionDefault
	}
	switch p {
	case dose.PermissionGranted, dose.PermissionDenied:
		return p
	case dose.PermissionDefault, dose.PermissionUnsupported:
		return dose.PermissionDefault
	}
	return dose.PermissionDefault
}

func (f permissionFile) save(p dose.Permission) error {
	if f.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("creating permission directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(p.String()+"\n"), 0600); err != nil {
		return fmt.Errorf("writing permission file: %w", err)
	}
	return nil
}
