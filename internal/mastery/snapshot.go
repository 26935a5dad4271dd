package mastery

import (
	"encoding/json"
	"fmt"
)

// recordVersion is bumped when the persisted shape changes incompatibly.
const recordVersion = 1

type record struct {
	Version int `json:"version"`
	State
}

// EncodeState serializes a state as the keyed record stored per learner.
func EncodeState(s State) ([]byte, error) {
	b, err := json.Marshal(record{Version: recordVersion, State: s})
	if err != nil {
		return nil, fmt.Errorf("encode mastery state: %w", err)
	}
	return b, nil
}

// DecodeState parses a stored record. Records without a version predate
// versioning and decode as version 1.
func DecodeState(data []byte) (State, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return State{}, fmt.Errorf("decode mastery state: %w", err)
	}
	if r.Version > recordVersion {
		return State{}, fmt.Errorf("decode mastery state: unsupported record version %d", r.Version)
	}
	return r.State, nil
}
