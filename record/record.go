// Package record abstracts the persistence side of an attachment: reading
// and writing the per-attachment fields on the owning database record.
package record

// Record is the narrow model contract the attachment manager consumes.
// Implementations are shared collaborators and must tolerate concurrent
// use across independent attachment instances.
type Record interface {
	// GetField returns the value of a persisted field, or nil when the
	// field does not exist. Field names use the storage (snake_case)
	// convention, e.g. "avatar_file_name".
	GetField(name string) any

	// SetField writes a field value. A nil value blanks the field.
	SetField(name string, value any)

	// PrimaryKey returns the record's natural identity value.
	PrimaryKey() any

	// TypeName returns the qualified type name of the record, used for the
	// {class} path token.
	TypeName() string

	// Fillable lists the fields writable besides the always-writable
	// filename and queue fields. nil means everything is writable.
	Fillable() []string

	// Persist writes the record's current field values to storage.
	Persist() error
}

// StateSyncer is implemented by records that can flush a single queue
// state column directly, bypassing save hooks. The manager prefers it for
// the Working/Done transitions so a flush never re-triggers model save
// machinery mid-flight.
type StateSyncer interface {
	SyncState(field string, state int) error
}
