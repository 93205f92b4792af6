package dose_test

import (
	"testing"
	"time"

	"dose-go/internal/dose"
	"dose-go/internal/testutil"
)

type harness struct {
	clock     *testutil.StubClock
	notifier  *testutil.RecordingNotifier
	store     dose.Store
	records   *dose.Records
	scheduler *dose.Scheduler
	reset     *dose.DailyReset
	service   *dose.ReminderService
}

func newHarness(t *testing.T, perm dose.Permission) *harness {
	t.Helper()
	return newHarnessAt(t, perm, testutil.FixedClock(), testutil.NewTestStore())
}

func newHarnessAt(t *testing.T, perm dose.Permission, clock *testutil.StubClock, store dose.Store) *harness {
	t.Helper()
	logger := dose.NewNopLogger()
	notifier := testutil.NewRecordingNotifier(perm)
	records := dose.NewRecords(store, logger)
	records.Load()
	scheduler := dose.NewScheduler(records, notifier, clock, logger, dose.SchedulerConfig{})
	return &harness{
		clock:     clock,
		notifier:  notifier,
		store:     store,
		records:   records,
		scheduler: scheduler,
		reset:     dose.NewDailyReset(records, scheduler, clock, logger, 0),
		service:   dose.NewReminderService(records, scheduler, nil, clock, testutil.NewStubIDGenerator(), logger),
	}
}

func (h *harness) addMedication(t *testing.T, name, at string) dose.Medication {
	t.Helper()
	m, err := h.service.AddMedication(name, "1 tablet", at)
	if err != nil {
		t.Fatalf("AddMedication() error = %v", err)
	}
	return m
}

func (h *harness) addAppointment(t *testing.T, in time.Duration) dose.Appointment {
	t.Helper()
	at := h.clock.Now().Add(in)
	a, err := h.service.AddAppointment(at.Format(time.DateOnly), at.Format("15:04"), "Cardiology", "Room 4")
	if err != nil {
		t.Fatalf("AddAppointment() error = %v", err)
	}
	return a
}
