package dose

import "time"

// DefaultAppointmentWindow is how far ahead an appointment is announced.
const DefaultAppointmentWindow = 24 * time.Hour

// IsMedicationDue reports whether med's time of day has strictly passed today
// (in now's location) and it has not been taken.
//
// The comparison is same-day only: an untaken 23:59 dose stays due until the
// midnight reset, after which it is evaluated against the new day.
func IsMedicationDue(med Medication, now time.Time) bool {
	if med.Taken {
		return false
	}
	return now.After(med.Time.On(now))
}

// IsAppointmentUpcoming reports whether appt starts strictly after now and no
// more than window after now, and has not been notified yet. Past appointments
// are never flagged.
func IsAppointmentUpcoming(appt Appointment, now time.Time, window time.Duration) bool {
	if appt.Notified {
		return false
	}
	at := appt.At(now.Location())
	return at.After(now) && !at.After(now.Add(window))
}
