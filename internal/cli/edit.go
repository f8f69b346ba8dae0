package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finledger/finsync/internal/models"
)

// RunAdd records an upsert for an entity. Field values are parsed as JSON
// where possible, otherwise kept as strings.
func (a *App) RunAdd(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: finsync add <type> <id> <field=value>...")
	}

	fields := make(map[string]any, len(args)-2)
	for _, arg := range args[2:] {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid field %q, expected field=value", arg)
		}
		fields[name] = parseValue(raw)
	}

	op := &models.Operation{
		EntityType: args[0],
		EntityID:   args[1],
		Kind:       models.OpUpsert,
		Fields:     fields,
	}
	id, err := a.Journal.Append(ctx, op)
	if err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}
	fmt.Printf("Recorded %s\n", id)
	return nil
}

// RunDelete records a delete for an entity.
func (a *App) RunDelete(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: finsync delete <type> <id>")
	}

	op := &models.Operation{
		EntityType: args[0],
		EntityID:   args[1],
		Kind:       models.OpDelete,
	}
	id, err := a.Journal.Append(ctx, op)
	if err != nil {
		return fmt.Errorf("failed to record delete: %w", err)
	}
	fmt.Printf("Recorded %s\n", id)
	return nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
