package dose_test

import (
	"testing"
	"time"

	"dose-go/internal/dose"
)

func TestIsMedicationDue(t *testing.T) {
	nine := dose.TimeOfDay{Hour: 9, Minute: 0}
	day := func(h, m, s int) time.Time { return time.Date(2024, 1, 1, h, m, s, 0, time.UTC) }

	tests := []struct {
		name  string
		taken bool
		now   time.Time
		want  bool
	}{
		{name: "one second before", now: day(8, 59, 59), want: false},
		{name: "exactly on time", now: day(9, 0, 0), want: false},
		{name: "one second after", now: day(9, 0, 1), want: true},
		{name: "late evening", now: day(23, 59, 0), want: true},
		{name: "taken", taken: true, now: day(12, 0, 0), want: false},
		{name: "just after midnight", now: day(0, 0, 5), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			med := dose.Medication{ID: "m1", Time: nine, Taken: tt.taken}
			if got := dose.IsMedicationDue(med, tt.now); got != tt.want {
				t.Errorf("IsMedicationDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMedicationDue_EarlyDoseAfterReset(t *testing.T) {
	// A 00:01 dose is due again less than a minute after the 00:00:05 reset.
	med := dose.Medication{ID: "m1", Time: dose.TimeOfDay{Hour: 0, Minute: 1}}
	reset := dose.NextResetAt(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), dose.DefaultResetGrace)

	if dose.IsMedicationDue(med, reset) {
		t.Error("due at the reset instant")
	}
	if !dose.IsMedicationDue(med, reset.Add(time.Minute)) {
		t.Error("not due one minute after reset")
	}
}

func TestIsAppointmentUpcoming(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	appt := func(day, h, m int) dose.Appointment {
		return dose.Appointment{
			ID:   "a1",
			Date: dose.Date{Year: 2024, Month: time.January, Day: day},
			Time: dose.TimeOfDay{Hour: h, Minute: m},
		}
	}

	tests := []struct {
		name     string
		appt     dose.Appointment
		notified bool
		want     bool
	}{
		{name: "23h59m ahead", appt: appt(2, 9, 59), want: true},
		{name: "exactly 24h ahead", appt: appt(2, 10, 0), want: true},
		{name: "24h01m ahead", appt: appt(2, 10, 1), want: false},
		{name: "one minute ahead", appt: appt(1, 10, 1), want: true},
		{name: "now", appt: appt(1, 10, 0), want: false},
		{name: "already passed", appt: appt(1, 9, 0), want: false},
		{name: "notified", appt: appt(1, 12, 0), notified: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.appt
			a.Notified = tt.notified
			if got := dose.IsAppointmentUpcoming(a, now, dose.DefaultAppointmentWindow); got != tt.want {
				t.Errorf("IsAppointmentUpcoming() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextResetAt(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "morning",
			now:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			want: time.Date(2024, 1, 16, 0, 0, 5, 0, time.UTC),
		},
		{
			name: "inside grace",
			now:  time.Date(2024, 1, 16, 0, 0, 2, 0, time.UTC),
			want: time.Date(2024, 1, 17, 0, 0, 5, 0, time.UTC),
		},
		{
			name: "end of month",
			now:  time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, 3, 1, 0, 0, 5, 0, time.UTC),
		},
		{
			name: "local midnight",
			now:  time.Date(2024, 1, 15, 23, 0, 0, 0, loc),
			want: time.Date(2024, 1, 16, 0, 0, 5, 0, loc),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dose.NextResetAt(tt.now, dose.DefaultResetGrace); !got.Equal(tt.want) {
				t.Errorf("NextResetAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	for _, s := range []string{"9:00", "24:00", "12:60", "1200", "", "12:00:00", "ab:cd"} {
		if _, err := dose.ParseTimeOfDay(s); err == nil {
			t.Errorf("ParseTimeOfDay(%q) expected error", s)
		}
	}
	got, err := dose.ParseTimeOfDay("07:05")
	if err != nil {
		t.Fatalf("ParseTimeOfDay() error = %v", err)
	}
	if got != (dose.TimeOfDay{Hour: 7, Minute: 5}) || got.String() != "07:05" {
		t.Errorf("ParseTimeOfDay() = %v", got)
	}
}
