package dose

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Forgetter drops any transient state keyed by a record id.
type Forgetter interface {
	Forget(id string)
}

// Advisor answers questions about a medication. It never fails: errors are
// turned into a friendly message by the implementation.
type Advisor interface {
	Ask(ctx context.Context, medicationID, medicationName, question string) string
}

// ReminderService is the orchestration layer behind the CLI and HTTP API.
// It validates input, mutates the record collections and keeps the
// scheduler's per-record state in step with deletions.
type ReminderService struct {
	records     *Records
	scheduler   *Scheduler
	advisor     Advisor
	clock       Clock
	idgen       IDGenerator
	logger      Logger
	forgetters  []Forgetter
	maxFileSize int64
}

// NewReminderService creates a ReminderService. advisor may be nil, in which
// case AskAboutMedication returns an error.
func NewReminderService(records *Records, scheduler *Scheduler, advisor Advisor, clock Clock, idgen IDGenerator, logger Logger) *ReminderService {
	return &ReminderService{
		records:     records,
		scheduler:   scheduler,
		advisor:     advisor,
		clock:       clock,
		idgen:       idgen,
		logger:      logger,
		maxFileSize: DefaultMaxFileSize,
	}
}

// PurgeOnDelete registers f to be told about every deleted medication id.
func (s *ReminderService) PurgeOnDelete(f Forgetter) {
	s.forgetters = append(s.forgetters, f)
}

// SetMaxFileSize limits the size of archived files. Non-positive values are ignored.
func (s *ReminderService) SetMaxFileSize(n int64) {
	if n > 0 {
		s.maxFileSize = n
	}
}

// Medications

func (s *ReminderService) Medications() []Medication {
	return s.records.Medications()
}

// AddMedication validates and stores a new untaken medication.
// at must be a 24-hour "HH:MM" time.
func (s *ReminderService) AddMedication(name, dosage, at string) (Medication, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Medication{}, invalidf("medication name is required")
	}
	tod, err := ParseTimeOfDay(strings.TrimSpace(at))
	if err != nil {
		return Medication{}, err
	}

	m := Medication{
		ID:     s.idgen.New(),
		Name:   name,
		Dosage: strings.TrimSpace(dosage),
		Time:   tod,
	}
	s.records.AddMedication(m)
	s.logger.Info("medication added", "id", m.ID, "time", m.Time.String())
	return m, nil
}

// ToggleTaken flips the taken flag of one medication.
func (s *ReminderService) ToggleTaken(id string) (Medication, error) {
	m, err := s.records.UpdateMedication(id, func(m Medication) Medication {
		m.Taken = !m.Taken
		return m
	})
	if err != nil {
		return Medication{}, err
	}
	s.logger.Info("medication toggled", "id", id, "taken", m.Taken)
	return m, nil
}

// DeleteMedication removes a medication and purges it from the scheduler's
// notified-set and every registered Forgetter.
func (s *ReminderService) DeleteMedication(id string) error {
	if err := s.records.DeleteMedication(id); err != nil {
		return err
	}
	s.scheduler.Forget(id)
	for _, f := range s.forgetters {
		f.Forget(id)
	}
	s.logger.Info("medication deleted", "id", id)
	return nil
}

// Appointments

func (s *ReminderService) Appointments() []Appointment {
	return s.records.Appointments()
}

// AddAppointment validates and stores a new appointment. date is
// "YYYY-MM-DD", at is "HH:MM", and together they must be in the future.
func (s *ReminderService) AddAppointment(date, at, specialty, location string) (Appointment, error) {
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return Appointment{}, invalidf("appointment specialty is required")
	}
	d, err := ParseDate(strings.TrimSpace(date))
	if err != nil {
		return Appointment{}, err
	}
	tod, err := ParseTimeOfDay(strings.TrimSpace(at))
	if err != nil {
		return Appointment{}, err
	}

	a := Appointment{
		ID:        s.idgen.New(),
		Date:      d,
		Time:      tod,
		Specialty: specialty,
		Location:  strings.TrimSpace(location),
	}
	now := s.clock.Now()
	if !a.At(now.Location()).After(now) {
		return Appointment{}, invalidf("appointment %s %s is not in the future", d, tod)
	}

	s.records.AddAppointment(a)
	s.logger.Info("appointment added", "id", a.ID, "date", d.String(), "time", tod.String())
	return a, nil
}

func (s *ReminderService) DeleteAppointment(id string) error {
	if err := s.records.DeleteAppointment(id); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "id", id)
	return nil
}

// Journal

// JournalEntries returns all entries, newest first. Timestamps have second
// precision, so entries from the same second keep reverse insertion order.
func (s *ReminderService) JournalEntries() []JournalEntry {
	entries := slices.Clone(s.records.JournalEntries())
	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b JournalEntry) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return entries
}

func (s *ReminderService) AddJournalEntry(content string) (JournalEntry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return JournalEntry{}, invalidf("journal entry is empty")
	}
	e := JournalEntry{
		ID:        s.idgen.New(),
		Timestamp: s.clock.Now().UTC().Truncate(time.Second),
		Content:   content,
	}
	s.records.AddJournalEntry(e)
	s.logger.Info("journal entry added", "id", e.ID)
	return e, nil
}

// Archive

func (s *ReminderService) ArchivedFiles() []ArchivedFile {
	return s.records.ArchivedFiles()
}

func (s *ReminderService) DeleteArchivedFile(id string) error {
	if err := s.records.DeleteArchivedFile(id); err != nil {
		return err
	}
	s.logger.Info("archived file deleted", "id", id)
	return nil
}

// Assistant

// AskAboutMedication asks the advisor about a stored medication. An empty
// question asks for a general explanation.
func (s *ReminderService) AskAboutMedication(ctx context.Context, id, question string) (string, error) {
	if s.advisor == nil {
		return "", fmt.Errorf("assistant is not configured")
	}
	m, err := s.records.Medication(id)
	if err != nil {
		return "", err
	}
	return s.advisor.Ask(ctx, m.ID, m.Name, strings.TrimSpace(question)), nil
}
