package types

import (
	"bytes"
	"encoding/json"
)

// NullableString tracks whether a string field was explicitly present in JSON,
// so `null` can be told apart from an omitted key.
type NullableString struct {
	Valid bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed string
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// Ptr returns the value when present; nil otherwise.
func (n NullableString) Ptr() *string {
	if !n.Valid || n.Value == nil {
		return nil
	}
	v := *n.Value
	return &v
}
