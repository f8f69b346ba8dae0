// Package api defines the wire contract between the sync client and the
// remote blob+op-log store.
package api

// WireOp is one operation on the wire. Body is an opaque sealed blob; the
// envelope fields are what the server needs for ordering and routing.
type WireOp struct {
	ID            string `json:"id"`
	Entity        string `json:"entity"`
	EntityID      string `json:"entity_id"`
	Op            string `json:"op"`
	DeviceID      string `json:"device_id"`
	Ts            int64  `json:"ts"`
	SchemaVersion int    `json:"schema_version"`
	Body          []byte `json:"body,omitempty"`
}

// UploadRequest is the body of POST /sync/upload.
type UploadRequest struct {
	DeviceID string   `json:"device_id"`
	Ops      []WireOp `json:"ops"`
}

// Rejection reason kinds. Transient rejections stay pending for the next
// cycle; anything else is permanent.
const (
	ReasonKindTransient = "transient"
	ReasonKindPermanent = "permanent"
)

// RejectedOp reports one op the server refused.
type RejectedOp struct {
	ID         string `json:"id"`
	Reason     string `json:"reason"`
	ReasonKind string `json:"reason_kind"`
}

// UploadResponse is the server's answer to an upload.
type UploadResponse struct {
	Rejected      []RejectedOp `json:"rejected,omitempty"`
	ServerVersion int64        `json:"server_version"`
}

// DownloadResponse is the server's answer to GET /sync/download?since=V.
type DownloadResponse struct {
	Ops           []WireOp `json:"ops"`
	ServerVersion int64    `json:"server_version"`
	ServerTimeMs  int64    `json:"server_time_ms,omitempty"`
}

// ResetResponse confirms POST /sync/reset wiped the remote copy.
type ResetResponse struct {
	Confirmed bool `json:"confirmed"`
}

// ErrorResponse is the server's error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
