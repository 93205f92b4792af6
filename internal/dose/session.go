package dose

import (
	"context"
	"time"
)

// DefaultPermissionCheck is how often the session re-observes permission.
const DefaultPermissionCheck = 30 * time.Second

// PermissionWatcher is implemented by notifiers whose permission can change
// outside the process.
type PermissionWatcher interface {
	// Refresh re-reads the host permission state.
	Refresh()
	// Changes signals after the permission state changed.
	Changes() <-chan struct{}
}

// Session is the single event loop that serializes the medication poll, the
// appointment poll, the daily reset and permission observation. Callbacks
// never run concurrently with each other.
type Session struct {
	scheduler       *Scheduler
	reset           *DailyReset
	watcher         PermissionWatcher
	clock           Clock
	logger          Logger
	permissionCheck time.Duration
}

// NewSession creates a session. watcher may be nil.
func NewSession(scheduler *Scheduler, reset *DailyReset, watcher PermissionWatcher, clock Clock, logger Logger, permissionCheck time.Duration) *Session {
	if permissionCheck <= 0 {
		permissionCheck = DefaultPermissionCheck
	}
	return &Session{
		scheduler:       scheduler,
		reset:           reset,
		watcher:         watcher,
		clock:           clock,
		logger:          logger,
		permissionCheck: permissionCheck,
	}
}

// Run blocks until ctx is canceled. Every ticker and timer it owns is stopped
// before it returns, and nothing fires once ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("reminder session starting")

	s.scheduler.Sync()
	defer s.scheduler.Stop()

	resetTimer := s.reset.ScheduleNext()
	defer func() { resetTimer.Stop() }()

	permTicker := s.clock.NewTicker(s.permissionCheck)
	defer permTicker.Stop()

	var changes <-chan struct{}
	if s.watcher != nil {
		changes = s.watcher.Changes()
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder session stopping")
			return nil
		case <-s.scheduler.MedicationTicks():
			if ctx.Err() != nil {
				continue
			}
			s.scheduler.TickMedications()
		case <-s.scheduler.AppointmentTicks():
			if ctx.Err() != nil {
				continue
			}
			s.scheduler.TickAppointments()
		case <-resetTimer.C():
			if ctx.Err() != nil {
				continue
			}
			s.reset.Fire()
			resetTimer = s.reset.ScheduleNext()
		case <-permTicker.C():
			if ctx.Err() != nil {
				continue
			}
			if s.watcher != nil {
				s.watcher.Refresh()
			}
			s.scheduler.Sync()
		case <-changes:
			if ctx.Err() != nil {
				continue
			}
			s.scheduler.Sync()
		}
	}
}
