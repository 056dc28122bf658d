package syncclient

import (
	"encoding/json"
	"fmt"
)

// versionProbe reads just enough of a raw envelope to tell v1 from
// v2 — v1 bodies never carry a "version" field.
type versionProbe struct {
	Version int `json:"version"`
}

// DecodeEnvelope parses raw JSON into a v2 envelope, promoting a v1
// body on read.
func DecodeEnvelope(raw []byte) (EnvelopeV2, error) {
	var probe versionProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return EnvelopeV2{}, fmt.Errorf("syncclient: decode envelope: %w", err)
	}

	if probe.Version >= 2 {
		var v2 EnvelopeV2
		if err := json.Unmarshal(raw, &v2); err != nil {
			return EnvelopeV2{}, fmt.Errorf("syncclient: decode v2 envelope: %w", err)
		}
		return v2, nil
	}

	var v1 envelopeV1
	if err := json.Unmarshal(raw, &v1); err != nil {
		return EnvelopeV2{}, fmt.Errorf("syncclient: decode v1 envelope: %w", err)
	}
	return PromoteV1(v1), nil
}
