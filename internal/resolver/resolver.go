// Package resolver implements deterministic field-level last-write-wins
// merging of concurrently edited records.
//
// Every function here is pure: resolution depends only on the competing
// operations' own timestamps and device IDs, never on wall-clock time, so
// replaying the same ops in any arrival order converges to the same state.
package resolver

import (
	"fmt"
	"time"

	"github.com/finledger/finsync/internal/models"
)

// FieldVersion is one field's current value together with the version that
// wrote it. The (Timestamp, DeviceID) pair is the sole ordering mechanism.
type FieldVersion struct {
	Value     any
	DeviceID  string
	Timestamp int64
}

// EntityState is the merged state of a single entity. It is a register map
// plus a delete register; merging ops into it is commutative, associative
// and idempotent.
type EntityState struct {
	Fields       map[string]FieldVersion
	EntityType   string
	EntityID     string
	DeleteDevice string
	DeleteStamp  int64
}

// NewEntityState creates an empty state for the given entity.
func NewEntityState(entityType, entityID string) *EntityState {
	return &EntityState{
		EntityType: entityType,
		EntityID:   entityID,
		Fields:     make(map[string]FieldVersion),
	}
}

// StateFromTombstone seeds a state with a persisted delete register, so an
// active tombstone keeps dominating stale upserts across sync cycles.
func StateFromTombstone(ts *models.Tombstone) *EntityState {
	state := NewEntityState(ts.EntityType, ts.EntityID)
	state.DeleteStamp = ts.DeleteStamp
	state.DeleteDevice = ts.DeviceID
	return state
}

// newer reports whether version (ts1, dev1) wins over (ts2, dev2) in the
// fixed total order: larger timestamp, then lexicographically greater
// device ID. Identical versions are not newer than each other.
func newer(ts1 int64, dev1 string, ts2 int64, dev2 string) bool {
	if ts1 != ts2 {
		return ts1 > ts2
	}
	return dev1 > dev2
}

// Apply merges one operation into the state and returns the conflict
// records the merge produced. Applying the same op twice is a no-op.
func (s *EntityState) Apply(op *models.Operation) []*models.ConflictRecord {
	if op.EntityType != s.EntityType || op.EntityID != s.EntityID {
		return nil
	}

	if op.Kind == models.OpDelete {
		if newer(op.Timestamp, op.DeviceID, s.DeleteStamp, s.DeleteDevice) {
			s.DeleteStamp = op.Timestamp
			s.DeleteDevice = op.DeviceID
		}
		return nil
	}

	var conflicts []*models.ConflictRecord
	for name, value := range op.Fields {
		existing, ok := s.Fields[name]
		if !ok {
			s.Fields[name] = FieldVersion{Value: value, Timestamp: op.Timestamp, DeviceID: op.DeviceID}
			continue
		}
		if existing.Timestamp == op.Timestamp && existing.DeviceID == op.DeviceID {
			// Same version observed again; idempotent re-apply.
			continue
		}
		if newer(op.Timestamp, op.DeviceID, existing.Timestamp, existing.DeviceID) {
			if rec := conflictFor(s, name, existing, op.Timestamp, op.DeviceID, value); rec != nil {
				conflicts = append(conflicts, rec)
			}
			s.Fields[name] = FieldVersion{Value: value, Timestamp: op.Timestamp, DeviceID: op.DeviceID}
			continue
		}
		// The incoming value loses; record the discard if it differed.
		if rec := conflictFor(s, name, FieldVersion{Value: value, Timestamp: op.Timestamp, DeviceID: op.DeviceID}, existing.Timestamp, existing.DeviceID, existing.Value); rec != nil {
			conflicts = append(conflicts, rec)
		}
	}
	return conflicts
}

// conflictFor builds a ConflictRecord for a discarded field version, or nil
// when the values agree or both came from the same device.
func conflictFor(s *EntityState, field string, loser FieldVersion, winnerTs int64, winnerDev string, winnerVal any) *models.ConflictRecord {
	if loser.DeviceID == winnerDev {
		return nil
	}
	if models.FieldValuesEqual(loser.Value, winnerVal) {
		return nil
	}
	resolution := models.ResolutionApplied
	if loser.Timestamp == winnerTs {
		// Tie broken only by device order: ambiguous, surface for review.
		resolution = models.ResolutionPendingReview
	}
	return &models.ConflictRecord{
		ID:         fmt.Sprintf("%s:%s:%d:%s", s.EntityID, field, winnerTs, winnerDev),
		EntityType: s.EntityType,
		EntityID:   s.EntityID,
		Field:      field,
		Resolution: resolution,
	}
}

// maxFieldVersion returns the newest field version in the state.
func (s *EntityState) maxFieldVersion() (int64, string) {
	var (
		ts  int64
		dev string
	)
	for _, v := range s.Fields {
		if newer(v.Timestamp, v.DeviceID, ts, dev) {
			ts = v.Timestamp
			dev = v.DeviceID
		}
	}
	return ts, dev
}

// Deleted reports whether the entity's final state is deleted: the delete
// register wins over every field version.
func (s *EntityState) Deleted() bool {
	if s.DeleteStamp == 0 && s.DeleteDevice == "" {
		return false
	}
	ts, dev := s.maxFieldVersion()
	if ts == 0 && dev == "" {
		return true
	}
	return newer(s.DeleteStamp, s.DeleteDevice, ts, dev)
}

// VisibleFields returns the surviving field values: everything when the
// entity was never deleted, otherwise only versions that beat the delete
// register (a resurrecting upsert's fields).
func (s *EntityState) VisibleFields() map[string]any {
	fields := make(map[string]any, len(s.Fields))
	for name, v := range s.Fields {
		if s.DeleteStamp != 0 || s.DeleteDevice != "" {
			if !newer(v.Timestamp, v.DeviceID, s.DeleteStamp, s.DeleteDevice) {
				continue
			}
		}
		fields[name] = v.Value
	}
	return fields
}

// ToOperation renders the merged state as a single resolved operation.
// For a surviving entity the op carries the visible fields stamped with the
// newest contributing version; for a deleted entity it is a delete op
// stamped with the delete register.
func (s *EntityState) ToOperation() *models.Operation {
	if s.Deleted() {
		return &models.Operation{
			EntityType:    s.EntityType,
			EntityID:      s.EntityID,
			Kind:          models.OpDelete,
			Timestamp:     s.DeleteStamp,
			DeviceID:      s.DeleteDevice,
			SchemaVersion: models.SchemaVersion,
		}
	}
	ts, dev := s.maxFieldVersion()
	return &models.Operation{
		EntityType:    s.EntityType,
		EntityID:      s.EntityID,
		Kind:          models.OpUpsert,
		Timestamp:     ts,
		DeviceID:      dev,
		Fields:        s.VisibleFields(),
		SchemaVersion: models.SchemaVersion,
	}
}

// Result is the outcome of resolving competing operations for one entity.
type Result struct {
	Merged    *models.Operation
	Tombstone *models.Tombstone
	Conflicts []*models.ConflictRecord
	// ClearTombstone is set when a previously active tombstone was beaten
	// by a newer upsert and must be removed (resurrection).
	ClearTombstone bool
}

// Resolve merges two competing operations for the same entity.
// Resolve(a, b) == Resolve(b, a) by construction.
func Resolve(a, b *models.Operation, ttl time.Duration) Result {
	return ResolveAll(NewEntityState(a.EntityType, a.EntityID), []*models.Operation{a, b}, ttl)
}

// ResolveAll merges any number of operations into a starting state and
// renders the outcome. The starting state typically carries an active
// tombstone's delete register.
func ResolveAll(state *EntityState, ops []*models.Operation, ttl time.Duration) Result {
	hadTombstone := state.DeleteStamp != 0 || state.DeleteDevice != ""

	var result Result
	for _, op := range ops {
		result.Conflicts = append(result.Conflicts, state.Apply(op)...)
	}

	result.Merged = state.ToOperation()
	if state.Deleted() {
		result.Tombstone = models.NewTombstone(result.Merged, ttl)
	} else if hadTombstone {
		result.ClearTombstone = true
	}
	return result
}
