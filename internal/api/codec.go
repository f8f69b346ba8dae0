package api

import (
	"encoding/json"
	"fmt"

	"github.com/finledger/finsync/internal/blobseal"
	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/pkg/api"
)

// EncodeOp converts a journal operation into its wire form, sealing the
// field payload into an opaque blob.
func EncodeOp(op *models.Operation, sealer blobseal.Sealer) (api.WireOp, error) {
	wire := api.WireOp{
		ID:            op.ID,
		Entity:        op.EntityType,
		EntityID:      op.EntityID,
		Op:            string(op.Kind),
		Ts:            op.Timestamp,
		DeviceID:      op.DeviceID,
		SchemaVersion: op.SchemaVersion,
	}

	if op.Kind == models.OpUpsert {
		plain, err := json.Marshal(op.Fields)
		if err != nil {
			return api.WireOp{}, fmt.Errorf("failed to encode op %s fields: %w", op.ID, err)
		}
		sealed, err := sealer.Seal(plain)
		if err != nil {
			return api.WireOp{}, fmt.Errorf("failed to seal op %s: %w", op.ID, err)
		}
		wire.Body = sealed
	}

	return wire, nil
}

// DecodeOp converts a wire op back into a journal operation, opening the
// sealed payload.
func DecodeOp(wire api.WireOp, sealer blobseal.Sealer) (*models.Operation, error) {
	op := &models.Operation{
		ID:            wire.ID,
		EntityType:    wire.Entity,
		EntityID:      wire.EntityID,
		Kind:          models.OpKind(wire.Op),
		Timestamp:     wire.Ts,
		DeviceID:      wire.DeviceID,
		SchemaVersion: wire.SchemaVersion,
	}

	if op.Kind == models.OpUpsert && len(wire.Body) > 0 {
		plain, err := sealer.Open(wire.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open op %s body: %w", wire.ID, err)
		}
		if err := json.Unmarshal(plain, &op.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode op %s fields: %w", wire.ID, err)
		}
	}

	return op, nil
}
