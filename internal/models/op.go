package models

import (
	"encoding/json"
	"time"
)

// OpKind is the kind of mutation an Operation records.
type OpKind string

const (
	OpUpsert OpKind = "upsert"
	OpDelete OpKind = "delete"
)

// Entity type constants for the records the finance calculators produce.
const (
	EntityAccount     = "account"
	EntityTransaction = "transaction"
	EntityGoal        = "goal"
	EntityScenario    = "scenario"
	EntityBudget      = "budget"
)

// KnownEntityTypes lists the entity types this client understands.
// Downloaded ops with other types are skipped, not fatal.
var KnownEntityTypes = map[string]bool{
	EntityAccount:     true,
	EntityTransaction: true,
	EntityGoal:        true,
	EntityScenario:    true,
	EntityBudget:      true,
}

// SchemaVersion is the op payload schema this client writes and understands.
// Downloaded ops with a newer schema version are skipped with a warning.
const SchemaVersion = 1

// Operation is one immutable entry in the append-only change journal.
// The ordering key is (Timestamp, DeviceID), which forms the total order
// used for conflict tie-breaking across all devices.
type Operation struct {
	CreatedAt      time.Time      `json:"created_at"`
	Fields         map[string]any `json:"fields,omitempty"`
	ID             string         `json:"id"`
	EntityType     string         `json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	DeviceID       string         `json:"device_id"`
	FailReason     string         `json:"fail_reason,omitempty"`
	Kind           OpKind         `json:"kind"`
	Timestamp      int64          `json:"timestamp"`
	SchemaVersion  int            `json:"schema_version"`
	AppliedLocally bool           `json:"applied_locally"`
	Failed         bool           `json:"failed,omitempty"`
}

// IsNewerThan reports whether the operation wins over other in the
// last-write-wins order: larger Timestamp first, lexicographically greater
// DeviceID on an exact tie. The order is arbitrary but fixed and identical
// on every client.
func (o *Operation) IsNewerThan(other *Operation) bool {
	if o.Timestamp != other.Timestamp {
		return o.Timestamp > other.Timestamp
	}
	return o.DeviceID > other.DeviceID
}

// Before reports whether o precedes other in journal order.
func (o *Operation) Before(other *Operation) bool {
	if o.Timestamp != other.Timestamp {
		return o.Timestamp < other.Timestamp
	}
	return o.DeviceID < other.DeviceID
}

// Clone creates a deep copy of the operation.
func (o *Operation) Clone() *Operation {
	clone := *o
	if o.Fields != nil {
		clone.Fields = make(map[string]any, len(o.Fields))
		for k, v := range o.Fields {
			clone.Fields[k] = v
		}
	}
	return &clone
}

// FieldValuesEqual compares two field values by their JSON encoding.
// Values cross the wire as JSON, so JSON equality is the authoritative
// notion of "same value" when deciding whether a discarded field differed.
func FieldValuesEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}
