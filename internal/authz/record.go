package authz

import "github.com/google/uuid"

// Record is an untyped item from the collaborator data store, keyed by
// field name. Both persisted items and not-yet-saved payloads use this
// shape, which lets ownership resolution run against either.
type Record map[string]any

const recordIDField = "id"

// ID returns the record's primary id, or uuid.Nil if absent. A payload
// that has not been saved yet has no id.
func (r Record) ID() uuid.UUID {
	id, _ := r.Ref(recordIDField)
	return id
}

// Ref reads a field as a foreign-key reference. It tolerates the
// value shapes different store drivers produce for uuid columns.
func (r Record) Ref(field string) (uuid.UUID, bool) {
	switch v := r[field].(type) {
	case uuid.UUID:
		return v, true
	case [16]byte:
		return uuid.UUID(v), true
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, false
		}
		return id, true
	default:
		return uuid.Nil, false
	}
}
