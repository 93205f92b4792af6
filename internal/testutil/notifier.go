package testutil

import (
	"sync"

	"dose-go/internal/dose"
)

// Shown is one notification passed to a RecordingNotifier.
type Shown struct {
	Title string
	Opts  dose.ShowOptions
}

// RecordingNotifier is a dose.Notifier with a settable permission. It
// records every Show call and, separately, the ones that would have been
// displayed because permission was granted.
type RecordingNotifier struct {
	mu        sync.Mutex
	perm      dose.Permission
	calls     []Shown
	displayed []Shown
	changes   chan struct{}
}

var (
	_ dose.Notifier          = (*RecordingNotifier)(nil)
	_ dose.PermissionWatcher = (*RecordingNotifier)(nil)
)

func NewRecordingNotifier(perm dose.Permission) *RecordingNotifier {
	return &RecordingNotifier{perm: perm, changes: make(chan struct{}, 1)}
}

func (n *RecordingNotifier) Permission() dose.Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.perm
}

// SetPermission changes the permission and signals Changes.
func (n *RecordingNotifier) SetPermission(p dose.Permission) {
	n.mu.Lock()
	n.perm = p
	n.mu.Unlock()
	select {
	case n.changes <- struct{}{}:
	default:
	}
}

func (n *RecordingNotifier) Show(title string, opts dose.ShowOptions) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s := Shown{Title: title, Opts: opts}
	n.calls = append(n.calls, s)
	if n.perm == dose.PermissionGranted {
		n.displayed = append(n.displayed, s)
	}
}

func (n *RecordingNotifier) Refresh() {}

func (n *RecordingNotifier) Changes() <-chan struct{} { return n.changes }

// Calls returns every Show call regardless of permission.
func (n *RecordingNotifier) Calls() []Shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Shown(nil), n.calls...)
}

// Displayed returns the Show calls made while permission was granted.
func (n *RecordingNotifier) Displayed() []Shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Shown(nil), n.displayed...)
}

// CountTag returns how many Show calls carried the given tag.
func (n *RecordingNotifier) CountTag(tag string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.calls {
		if s.Opts.Tag == tag {
			count++
		}
	}
	return count
}
