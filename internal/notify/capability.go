// Package notify adapts host notification mechanisms to the permission-gated
// dose.Notifier contract.
package notify

import (
	"context"
	"fmt"
	"io"

	"dose-go/internal/config"
	"dose-go/internal/dose"
)

// Capability is a host notification mechanism.
type Capability interface {
	// Supported reports whether the host can show notifications at all.
	Supported() bool
	// Permission returns the host's current decision.
	Permission() dose.Permission
	// Request asks the host (usually the user) for permission and returns
	// the resulting state.
	Request(ctx context.Context) (dose.Permission, error)
	// Display shows a notification. Callers have already checked permission.
	Display(title string, opts dose.ShowOptions) error
}

// Unsupported is the capability of a host with no notification mechanism.
type Unsupported struct{}

var _ Capability = Unsupported{}

func (Unsupported) Supported() bool             { return false }
func (Unsupported) Permission() dose.Permission { return dose.PermissionUnsupported }

func (Unsupported) Request(context.Context) (dose.Permission, error) {
	return dose.PermissionUnsupported, fmt.Errorf("notifications are not supported on this host")
}

func (Unsupported) Display(string, dose.ShowOptions) error {
	return fmt.Errorf("notifications are not supported on this host")
}

// NewCapabilityFromConfig creates a Capability based on the notifications
// config type. Console notifications are written to out.
func NewCapabilityFromConfig(cfg config.NotificationsConfig, out io.Writer, logger dose.Logger) (Capability, error) {
	switch cfg.Type {
	case "console", "":
		return NewConsoleCapability(out, cfg.PermissionFile), nil
	case "push":
		if cfg.PushURL == "" {
			return nil, fmt.Errorf("push notifications require push_url to be set")
		}
		return NewPushCapability(cfg.PushURL, cfg.PushToken, cfg.PermissionFile, logger), nil
	case "memory":
		return NewMemoryCapability(dose.PermissionGranted), nil
	case "none":
		return Unsupported{}, nil
	default:
		return nil, fmt.Errorf("unknown notifications type: %q", cfg.Type)
	}
}
