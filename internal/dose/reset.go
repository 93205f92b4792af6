package dose

import "time"

// DefaultResetGrace is added after local midnight before the reset fires.
const DefaultResetGrace = 5 * time.Second

// NextResetAt returns the next local midnight after now, plus grace.
func NextResetAt(now time.Time, grace time.Duration) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return midnight.Add(grace)
}

// DailyReset clears every medication's taken flag and the scheduler's
// notified-set once per local day. It is a one-shot timer rescheduled after
// each fire, so drift never accumulates across days. Appointment notified
// flags are never touched.
type DailyReset struct {
	records   *Records
	scheduler *Scheduler
	clock     Clock
	logger    Logger
	grace     time.Duration
	marker    ResetMarker
}

// ResetMarker remembers the local day of the last reset, so a process that
// was not running at midnight can catch up when it starts.
type ResetMarker interface {
	LastReset() (day Date, ok bool, err error)
	MarkReset(day Date) error
}

// NewDailyReset creates a reset timer. A non-positive grace uses DefaultResetGrace.
func NewDailyReset(records *Records, scheduler *Scheduler, clock Clock, logger Logger, grace time.Duration) *DailyReset {
	if grace <= 0 {
		grace = DefaultResetGrace
	}
	return &DailyReset{records: records, scheduler: scheduler, clock: clock, logger: logger, grace: grace}
}

// ScheduleNext starts a one-shot timer for the next reset. The caller owns
// the timer and must stop it on teardown.
func (d *DailyReset) ScheduleNext() Timer {
	now := d.clock.Now()
	next := NextResetAt(now, d.grace)
	d.logger.Debug("daily reset scheduled", "at", next.Format(time.RFC3339))
	return d.clock.NewTimer(next.Sub(now))
}

// SetMarker records every reset in m and enables CatchUp.
func (d *DailyReset) SetMarker(m ResetMarker) {
	d.marker = m
}

// CatchUp fires the reset when the last recorded reset happened on an
// earlier local day. With no recorded reset, today is recorded and nothing
// is cleared. Reports whether the reset fired.
func (d *DailyReset) CatchUp() bool {
	if d.marker == nil {
		return false
	}
	today := DateOf(d.clock.Now())
	last, ok, err := d.marker.LastReset()
	if err != nil {
		d.logger.Warn("reading last reset failed", "error", err)
		return false
	}
	if !ok {
		d.mark(today)
		return false
	}
	if !last.Before(today) {
		return false
	}
	d.logger.Info("missed daily reset", "last", last.String())
	d.Fire()
	return true
}

// Fire performs the reset. It is idempotent.
func (d *DailyReset) Fire() {
	cleared := d.records.ResetTaken()
	d.scheduler.ClearNotified()
	d.mark(DateOf(d.clock.Now()))
	d.logger.Info("daily reset", "cleared", cleared)
}

func (d *DailyReset) mark(day Date) {
	if d.marker == nil {
		return
	}
	if err := d.marker.MarkReset(day); err != nil {
		d.logger.Warn("recording daily reset failed", "error", err)
	}
}
