package dose

// Persistence keys, one per record collection.
const (
	KeyMedications    = "medications"
	KeyJournalEntries = "journalEntries"
	KeyArchivedFiles  = "archivedFiles"
	KeyAppointments   = "appointments"
)

// Store is the key/value persistence substrate. Values are opaque strings.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set replaces the value stored under key.
	Set(key, value string) error

	// Close releases any resources held by the store.
	Close() error
}
