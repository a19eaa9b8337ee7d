package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/armstrong/internal/ir"
)

// marshalAttrs converts an attribute set to canonical JSON TEXT for storage.
func marshalAttrs(attrs ir.AttrSet) (string, error) {
	data, err := ir.MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(data), nil
}

// unmarshalAttrs converts stored JSON TEXT back to an attribute set.
func unmarshalAttrs(data string) (ir.AttrSet, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return ir.NewAttrSet(names...), nil
}
