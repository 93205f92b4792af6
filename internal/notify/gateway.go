package notify

import (
	"context"
	"sync"

	"dose-go/internal/dose"
)

// Gateway is the dose.Notifier used by the scheduler. It caches the
// capability's permission and drops every Show unless it is granted.
type Gateway struct {
	capability Capability
	logger     dose.Logger

	mu         sync.Mutex
	permission dose.Permission
	changes    chan struct{}
}

var (
	_ dose.Notifier          = (*Gateway)(nil)
	_ dose.PermissionWatcher = (*Gateway)(nil)
)

func NewGateway(capability Capability, logger dose.Logger) *Gateway {
	g := &Gateway{
		capability: capability,
		logger:     logger,
		permission: dose.PermissionUnsupported,
		changes:    make(chan struct{}, 1),
	}
	if capability.Supported() {
		g.permission = capability.Permission()
	} else {
		logger.Warn("notifications unsupported on this host, reminders will not be shown")
	}
	return g
}

func (g *Gateway) Permission() dose.Permission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.permission
}

// RequestPermission asks the host for permission and returns the resulting
// state. Failures are logged and leave the state unchanged.
func (g *Gateway) RequestPermission(ctx context.Context) dose.Permission {
	if !g.capability.Supported() {
		g.logger.Info("permission request ignored, notifications unsupported")
		return dose.PermissionUnsupported
	}
	p, err := g.capability.Request(ctx)
	if err != nil {
		g.logger.Warn("notification permission request failed", "error", err)
		return g.Permission()
	}
	g.set(p)
	return p
}

// Refresh re-reads the capability's permission, picking up decisions made
// outside this process.
func (g *Gateway) Refresh() {
	if !g.capability.Supported() {
		return
	}
	g.set(g.capability.Permission())
}

func (g *Gateway) Changes() <-chan struct{} {
	return g.changes
}

// Show displays a notification if permission is granted and otherwise does
// nothing. Display errors and panics are logged, never returned.
func (g *Gateway) Show(title string, opts dose.ShowOptions) {
	switch g.Permission() {
	case dose.PermissionGranted:
	case dose.PermissionUnsupported, dose.PermissionDefault, dose.PermissionDenied:
		return
	default:
		return
	}

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("notification display panicked", "tag", opts.Tag, "panic", r)
		}
	}()
	if err := g.capability.Display(title, opts); err != nil {
		g.logger.Warn("failed to display notification", "tag", opts.Tag, "error", err)
	}
}

func (g *Gateway) set(p dose.Permission) {
	g.mu.Lock()
	changed := g.permission != p
	old := g.permission
	g.permission = p
	g.mu.Unlock()

	if !changed {
		return
	}
	g.logger.Info("notification permission changed", "from", old.String(), "to", p.String())
	select {
	case g.changes <- struct{}{}:
	default:
	}
}
