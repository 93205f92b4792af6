package dose

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

type record interface {
	recordID() string
}

func (m Medication) recordID() string   { return m.ID }
func (a Appointment) recordID() string  { return a.ID }
func (j JournalEntry) recordID() string { return j.ID }
func (f ArchivedFile) recordID() string { return f.ID }

// Records holds the four in-memory record collections and mirrors every
// mutation to the Store under the collection's key.
//
// Collections are copy-on-write: a slice returned by an accessor is never
// modified afterwards, so readers always see a consistent snapshot.
type Records struct {
	mu     sync.Mutex
	store  Store
	logger Logger

	medications    []Medication
	appointments   []Appointment
	journalEntries []JournalEntry
	archivedFiles  []ArchivedFile
}

// NewRecords creates empty collections backed by store. Call Load to read
// previously persisted state.
func NewRecords(store Store, logger Logger) *Records {
	return &Records{store: store, logger: logger}
}

// Load reads every collection from the store. Each key is decoded
// independently: a missing or corrupt key leaves that collection empty and
// is logged, while the other collections still load.
func (r *Records) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.medications = loadCollection[Medication](r, KeyMedications)
	r.appointments = loadCollection[Appointment](r, KeyAppointments)
	r.journalEntries = loadCollection[JournalEntry](r, KeyJournalEntries)
	r.archivedFiles = loadCollection[ArchivedFile](r, KeyArchivedFiles)
}

func loadCollection[T record](r *Records, key string) []T {
	raw, ok, err := r.store.Get(key)
	if err != nil {
		r.logger.Warn("reading collection failed", "key", key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		r.logger.Warn("decoding collection failed", "key", key, "error", err)
		return nil
	}
	r.logger.Debug("collection loaded", "key", key, "count", len(items))
	return items
}

// persist serializes the full collection under key. Failures are contained
// here: the in-memory collection keeps the new value and the store keeps
// whatever it had.
func (r *Records) persist(key string, items any) {
	data, err := json.Marshal(items)
	if err != nil {
		r.logger.Error("encoding collection failed", "key", key, "error", err)
		return
	}
	if err := r.store.Set(key, string(data)); err != nil {
		r.logger.Error("writing collection failed", "key", key, "error", err)
	}
}

// Medications returns the current medication snapshot.
func (r *Records) Medications() []Medication {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.medications
}

// Appointments returns the current appointment snapshot.
func (r *Records) Appointments() []Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appointments
}

// JournalEntries returns the current journal snapshot in insertion order.
func (r *Records) JournalEntries() []JournalEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.journalEntries
}

// ArchivedFiles returns the current archive snapshot.
func (r *Records) ArchivedFiles() []ArchivedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.archivedFiles
}

// Medication returns the medication with the given id.
func (r *Records) Medication(id string) (Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := indexOf(r.medications, id)
	if i < 0 {
		return Medication{}, fmt.Errorf("medication %s: %w", id, ErrNotFound)
	}
	return r.medications[i], nil
}

func (r *Records) AddMedication(m Medication) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.medications = appendCopy(r.medications, m)
	r.persist(KeyMedications, r.medications)
}

// UpdateMedication replaces the medication with the given id by fn's result,
// leaving every other element and the order unchanged.
func (r *Records) UpdateMedication(id string, fn func(Medication) Medication) (Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, updated, ok := replaceByID(r.medications, id, fn)
	if !ok {
		return Medication{}, fmt.Errorf("medication %s: %w", id, ErrNotFound)
	}
	r.medications = next
	r.persist(KeyMedications, r.medications)
	return updated, nil
}

func (r *Records) DeleteMedication(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, ok := removeByID(r.medications, id)
	if !ok {
		return fmt.Errorf("medication %s: %w", id, ErrNotFound)
	}
	r.medications = next
	r.persist(KeyMedications, r.medications)
	return nil
}

// ResetTaken clears every medication's taken flag and returns how many were
// set. Running it twice in a row leaves the same state.
func (r *Records) ResetTaken() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cleared := 0
	next := make([]Medication, len(r.medications))
	for i, m := range r.medications {
		if m.Taken {
			cleared++
		}
		m.Taken = false
		next[i] = m
	}
	r.medications = next
	r.persist(KeyMedications, r.medications)
	return cleared
}

func (r *Records) AddAppointment(a Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments = appendCopy(r.appointments, a)
	r.persist(KeyAppointments, r.appointments)
}

func (r *Records) DeleteAppointment(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, ok := removeByID(r.appointments, id)
	if !ok {
		return fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	r.appointments = next
	r.persist(KeyAppointments, r.appointments)
	return nil
}

// MarkAppointmentsNotified sets notified on exactly the given ids, applied to
// the current collection. Ids deleted since evaluation are skipped and all
// other appointments are left untouched. Returns the number updated.
func (r *Records) MarkAppointmentsNotified(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	marked := 0
	next := make([]Appointment, len(r.appointments))
	for i, a := range r.appointments {
		if !a.Notified && slices.Contains(ids, a.ID) {
			a.Notified = true
			marked++
		}
		next[i] = a
	}
	r.appointments = next
	r.persist(KeyAppointments, r.appointments)
	return marked
}

func (r *Records) AddJournalEntry(e JournalEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journalEntries = appendCopy(r.journalEntries, e)
	r.persist(KeyJournalEntries, r.journalEntries)
}

func (r *Records) AddArchivedFile(f ArchivedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archivedFiles = appendCopy(r.archivedFiles, f)
	r.persist(KeyArchivedFiles, r.archivedFiles)
}

func (r *Records) DeleteArchivedFile(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, ok := removeByID(r.archivedFiles, id)
	if !ok {
		return fmt.Errorf("archived file %s: %w", id, ErrNotFound)
	}
	r.archivedFiles = next
	r.persist(KeyArchivedFiles, r.archivedFiles)
	return nil
}

func indexOf[T record](items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool { return item.recordID() == id })
}

// appendCopy never writes into spare capacity of a slice a reader may hold.
func appendCopy[T any](items []T, item T) []T {
	next := make([]T, len(items), len(items)+1)
	copy(next, items)
	return append(next, item)
}

func replaceByID[T record](items []T, id string, fn func(T) T) ([]T, T, bool) {
	var zero T
	i := indexOf(items, id)
	if i < 0 {
		return items, zero, false
	}
	next := slices.Clone(items)
	next[i] = fn(items[i])
	return next, next[i], true
}

func removeByID[T record](items []T, id string) ([]T, bool) {
	i := indexOf(items, id)
	if i < 0 {
		return items, false
	}
	next := make([]T, 0, len(items)-1)
	next = append(next, items[:i]...)
	return append(next, items[i+1:]...), true
}
