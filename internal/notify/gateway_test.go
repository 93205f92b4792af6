package notify

import (
	"context"
	"errors"
	"testing"

	"dose-go/internal/dose"
	"dose-go/internal/testutil"
)

func TestGateway_ShowGating(t *testing.T) {
	tests := []struct {
		perm        dose.Permission
		wantDisplay bool
	}{
		{perm: dose.PermissionGranted, wantDisplay: true},
		{perm: dose.PermissionDenied, wantDisplay: false},
		{perm: dose.PermissionDefault, wantDisplay: false},
	}
	for _, tt := range tests {
		t.Run(tt.perm.String(), func(t *testing.T) {
			c := NewMemoryCapability(tt.perm)
			g := NewGateway(c, dose.NewNopLogger())

			g.Show("Time for your medication", dose.ShowOptions{Body: "Take it", Tag: "m1"})

			got := len(c.Displayed()) == 1
			if got != tt.wantDisplay {
				t.Errorf("displayed = %v, want %v", got, tt.wantDisplay)
			}
		})
	}
}

func TestGateway_Unsupported(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	g := NewGateway(Unsupported{}, logger)

	if got := g.Permission(); got != dose.PermissionUnsupported {
		t.Fatalf("Permission() = %v, want unsupported", got)
	}
	if got := g.RequestPermission(context.Background()); got != dose.PermissionUnsupported {
		t.Errorf("RequestPermission() = %v, want unsupported", got)
	}
	g.Refresh()
	g.Show("title", dose.ShowOptions{})

	if got := g.Permission(); got != dose.PermissionUnsupported {
		t.Errorf("Permission() after request = %v, want unsupported", got)
	}
	if n := logger.Count("WARN", "unsupported"); n != 1 {
		t.Errorf("unsupported warnings = %d, want 1\n%s", n, logger)
	}
}

func TestGateway_RequestPermission(t *testing.T) {
	c := NewMemoryCapability(dose.PermissionDefault)
	g := NewGateway(c, dose.NewNopLogger())

	if got := g.RequestPermission(context.Background()); got != dose.PermissionGranted {
		t.Fatalf("RequestPermission() = %v, want granted", got)
	}
	select {
	case <-g.Changes():
	default:
		t.Error("Changes() not signalled after permission changed")
	}

	g.Show("title", dose.ShowOptions{Tag: "a1"})
	if got := c.Displayed(); len(got) != 1 {
		t.Errorf("Displayed() = %v, want one notification", got)
	}
}

func TestGateway_RefreshObservesExternalChange(t *testing.T) {
	c := NewMemoryCapability(dose.PermissionGranted)
	g := NewGateway(c, dose.NewNopLogger())

	c.SetPermission(dose.PermissionDenied)
	g.Show("before refresh", dose.ShowOptions{Tag: "1"})
	g.Refresh()
	g.Show("after refresh", dose.ShowOptions{Tag: "2"})

	if got := c.Displayed(); len(got) != 1 || got[0] != "1" {
		t.Errorf("Displayed() = %v, want [1]", got)
	}
	if got := g.Permission(); got != dose.PermissionDenied {
		t.Errorf("Permission() = %v, want denied", got)
	}
	select {
	case <-g.Changes():
	default:
		t.Error("Changes() not signalled after refresh saw a new state")
	}

	g.Refresh()
	select {
	case <-g.Changes():
		t.Error("Changes() signalled without a state change")
	default:
	}
}

func TestGateway_DisplayFailureIsContained(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	c := NewMemoryCapability(dose.PermissionGranted)
	c.FailDisplay(errors.New("bus closed"))
	g := NewGateway(c, logger)

	g.Show("title", dose.ShowOptions{Tag: "m1"})

	if n := logger.Count("WARN", "failed to display"); n != 1 {
		t.Errorf("display failure warnings = %d, want 1", n)
	}
}

type panickingCapability struct{ *MemoryCapability }

func (panickingCapability) Display(string, dose.ShowOptions) error { panic("boom") }

func TestGateway_DisplayPanicIsContained(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	g := NewGateway(panickingCapability{NewMemoryCapability(dose.PermissionGranted)}, logger)

	g.Show("title", dose.ShowOptions{})

	if n := logger.Count("ERROR", "panicked"); n != 1 {
		t.Errorf("panic errors = %d, want 1", n)
	}
}
