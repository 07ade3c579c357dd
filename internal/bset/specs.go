package bset

import (
	"encoding/json"
	"fmt"
)

// DefaultVersion is the Clexulator version written when bspecs.json does
// not name one.
const DefaultVersion = "v1.basic"

// Specs are the basis set specifications stored in bspecs.json. Version
// and LinearFunctionIndices are stored alongside the engine-defined
// specification keys.
type Specs struct {
	Specs                 map[string]any
	Version               string
	LinearFunctionIndices []int
}

// MarshalJSON writes the specification keys plus version and, when set,
// linear_function_indices.
func (s *Specs) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Specs)+2)
	for k, v := range s.Specs {
		out[k] = v
	}
	out["version"] = s.Version
	if s.LinearFunctionIndices != nil {
		out["linear_function_indices"] = s.LinearFunctionIndices
	}
	return json.Marshal(out)
}

// DecodeSpecs reads bspecs.json content. A missing version defaults to
// DefaultVersion.
func DecodeSpecs(raw []byte) (*Specs, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding basis set specifications: %w", err)
	}
	s := &Specs{Version: DefaultVersion, Specs: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case "version":
			if err := json.Unmarshal(v, &s.Version); err != nil {
				return nil, fmt.Errorf("decoding version: %w", err)
			}
		case "linear_function_indices":
			if err := json.Unmarshal(v, &s.LinearFunctionIndices); err != nil {
				return nil, fmt.Errorf("decoding linear_function_indices: %w", err)
			}
		default:
			var x any
			if err := json.Unmarshal(v, &x); err != nil {
				return nil, err
			}
			s.Specs[k] = x
		}
	}
	return s, nil
}
