package ir

import (
	"encoding/json"
	"fmt"
)

// ToMap serializes the document into plain maps, slices and scalars, the
// form Validate and external consumers operate on.
func (d *Document) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode document map: %w", err)
	}
	return out, nil
}

// FromMap decodes a serialized document.
func FromMap(m map[string]any) (*Document, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document map: %w", err)
	}
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &d, nil
}

// MarshalIndent renders a serialized document as indented JSON with keys in
// sorted order.
func MarshalIndent(m map[string]any) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Unmarshal parses JSON into a serialized document map.
func Unmarshal(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return m, nil
}
