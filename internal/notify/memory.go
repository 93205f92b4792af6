package notify

import (
	"context"
	"sync"

	"dose-go/internal/dose"
)

// MemoryCapability keeps notifications in process. Used by headless runs and
// tests.
type MemoryCapability struct {
	mu         sync.Mutex
	permission dose.Permission
	onRequest  dose.Permission
	displayed  []dose.ShowOptions
	failWith   error
}

var _ Capability = (*MemoryCapability)(nil)

// NewMemoryCapability creates a capability that answers Request with
// granted and currently reports perm.
func NewMemoryCapability(perm dose.Permission) *MemoryCapability {
	return &MemoryCapability{permission: perm, onRequest: dose.PermissionGranted}
}

func (m *MemoryCapability) Supported() bool { return true }

func (m *MemoryCapability) Permission() dose.Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permission
}

// SetPermission simulates a decision made outside the process.
func (m *MemoryCapability) SetPermission(p dose.Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permission = p
}

// AnswerRequestsWith sets the state a later Request resolves to.
func (m *MemoryCapability) AnswerRequestsWith(p dose.Permission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRequest = p
}

// FailDisplay makes every Display return err.
func (m *MemoryCapability) FailDisplay(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MemoryCapability) Request(context.Context) (dose.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permission = m.onRequest
	return m.permission, nil
}

func (m *MemoryCapability) Display(title string, opts dose.ShowOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.displayed = append(m.displayed, opts)
	return nil
}

// Displayed returns the tags of every displayed notification in order.
func (m *MemoryCapability) Displayed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tags := make([]string, len(m.displayed))
	for i, o := range m.displayed {
		tags[i] = o.Tag
	}
	return tags
}
