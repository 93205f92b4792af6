package dose

import (
	"fmt"
	"sync"
	"time"
)

// Default poll periods.
const (
	DefaultMedicationPoll  = 30 * time.Second
	DefaultAppointmentPoll = 5 * time.Minute
)

type loopState int

const (
	loopIdle    loopState = iota // no ticker
	loopArmed                    // ticker running, not ticked yet
	loopPolling                  // ticked at least once
)

func (s loopState) String() string {
	switch s {
	case loopIdle:
		return "idle"
	case loopArmed:
		return "armed"
	case loopPolling:
		return "polling"
	default:
		return "unknown"
	}
}

// pollLoop owns one ticker line. A nil channel from C blocks forever, so an
// idle loop is inert inside a select.
type pollLoop struct {
	name   string
	period time.Duration
	state  loopState
	ticker Ticker
}

func (l *pollLoop) arm(clock Clock) bool {
	if l.state != loopIdle {
		return false
	}
	l.ticker = clock.NewTicker(l.period)
	l.state = loopArmed
	return true
}

func (l *pollLoop) disarm() {
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
	l.state = loopIdle
}

func (l *pollLoop) C() <-chan time.Time {
	if l.ticker == nil {
		return nil
	}
	return l.ticker.C()
}

// SchedulerConfig holds poll periods and the appointment window.
// Zero values fall back to the defaults.
type SchedulerConfig struct {
	MedicationPoll    time.Duration
	AppointmentPoll   time.Duration
	AppointmentWindow time.Duration
}

// Scheduler evaluates due medications and upcoming appointments on two
// independent poll loops and drives the Notifier.
//
// Medications are deduplicated through an in-memory notified-set that lives
// for one day cycle. Appointments are deduplicated through their persisted
// notified flag.
type Scheduler struct {
	records  *Records
	notifier Notifier
	clock    Clock
	logger   Logger
	cfg      SchedulerConfig

	mu       sync.Mutex
	notified map[string]struct{}
	meds     pollLoop
	appts    pollLoop
}

// NewScheduler creates an idle scheduler. Call Sync to arm it.
func NewScheduler(records *Records, notifier Notifier, clock Clock, logger Logger, cfg SchedulerConfig) *Scheduler {
	if cfg.MedicationPoll <= 0 {
		cfg.MedicationPoll = DefaultMedicationPoll
	}
	if cfg.AppointmentPoll <= 0 {
		cfg.AppointmentPoll = DefaultAppointmentPoll
	}
	if cfg.AppointmentWindow <= 0 {
		cfg.AppointmentWindow = DefaultAppointmentWindow
	}
	return &Scheduler{
		records:  records,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		cfg:      cfg,
		notified: make(map[string]struct{}),
		meds:     pollLoop{name: "medications", period: cfg.MedicationPoll},
		appts:    pollLoop{name: "appointments", period: cfg.AppointmentPoll},
	}
}

// Sync arms both loops when permission is granted. Any other permission
// leaves the loops as they are: idle loops stay idle, and armed loops keep
// ticking while the notifier drops their events.
func (s *Scheduler) Sync() {
	perm := s.notifier.Permission()
	switch perm {
	case PermissionGranted:
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, l := range []*pollLoop{&s.meds, &s.appts} {
			if l.arm(s.clock) {
				s.logger.Info("poll loop armed", "loop", l.name, "period", l.period.String())
			}
		}
	case PermissionDefault, PermissionDenied, PermissionUnsupported:
		s.logger.Debug("poll loops not armed", "permission", perm.String())
	}
}

// Stop disarms both loops. The notified-set and persisted notified flags are
// kept, so a later Sync does not repeat notifications.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meds.disarm()
	s.appts.disarm()
}

// MedicationTicks returns the medication loop's tick channel, nil when idle.
func (s *Scheduler) MedicationTicks() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meds.C()
}

// AppointmentTicks returns the appointment loop's tick channel, nil when idle.
func (s *Scheduler) AppointmentTicks() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appts.C()
}

// LoopStates reports the medication and appointment loop states.
func (s *Scheduler) LoopStates() (medications, appointments string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meds.state.String(), s.appts.state.String()
}

// TickMedications notifies every due medication not already in the
// notified-set, then adds all of them to the set in one batch.
// Returns the notified ids.
func (s *Scheduler) TickMedications() []string {
	now := s.clock.Now()
	meds := s.records.Medications()

	s.mu.Lock()
	if s.meds.state == loopArmed {
		s.meds.state = loopPolling
	}
	var due []Medication
	for _, m := range meds {
		if _, seen := s.notified[m.ID]; seen {
			continue
		}
		if IsMedicationDue(m, now) {
			due = append(due, m)
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return nil
	}

	var ids []string
	for _, m := range due {
		if !s.exists(m.ID) {
			continue
		}
		ids = append(ids, m.ID)
		s.notifier.Show("Time for your medication", ShowOptions{
			Body:               medicationBody(m),
			RequireInteraction: true,
			Tag:                m.ID,
		})
	}

	// Deletion removes the record before calling Forget, so checking under
	// s.mu never re-adds an id that Forget already dropped.
	s.mu.Lock()
	for _, id := range ids {
		if s.exists(id) {
			s.notified[id] = struct{}{}
		}
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	s.logger.Info("medication reminders sent", "count", len(ids))
	return ids
}

// TickAppointments notifies every appointment upcoming within the window and
// persists notified on exactly that subset. Returns the notified ids.
func (s *Scheduler) TickAppointments() []string {
	now := s.clock.Now()
	appts := s.records.Appointments()

	s.mu.Lock()
	if s.appts.state == loopArmed {
		s.appts.state = loopPolling
	}
	s.mu.Unlock()

	var ids []string
	for _, a := range appts {
		if !IsAppointmentUpcoming(a, now, s.cfg.AppointmentWindow) {
			continue
		}
		ids = append(ids, a.ID)
		s.notifier.Show("Upcoming appointment", ShowOptions{
			Body:               appointmentBody(a),
			RequireInteraction: true,
			Tag:                a.ID,
		})
	}
	if len(ids) == 0 {
		return nil
	}

	marked := s.records.MarkAppointmentsNotified(ids)
	s.logger.Info("appointment reminders sent", "count", len(ids), "marked", marked)
	return ids
}

func (s *Scheduler) exists(id string) bool {
	_, err := s.records.Medication(id)
	return err == nil
}

// Forget drops id from the notified-set. Called when a medication is deleted.
func (s *Scheduler) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.notified, id)
}

// ClearNotified empties the notified-set for a new day cycle.
func (s *Scheduler) ClearNotified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.notified)
}

// Notified reports whether id is in the notified-set.
func (s *Scheduler) Notified(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notified[id]
	return ok
}

func medicationBody(m Medication) string {
	if m.Dosage == "" {
		return fmt.Sprintf("It's time to take %s.", m.Name)
	}
	return fmt.Sprintf("It's time to take %s (%s).", m.Name, m.Dosage)
}

func appointmentBody(a Appointment) string {
	body := fmt.Sprintf("%s appointment on %s at %s", a.Specialty, a.Date, a.Time)
	if a.Location != "" {
		body += " - " + a.Location
	}
	return body + "."
}
