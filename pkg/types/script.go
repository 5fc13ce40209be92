package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

// Script is an opaque output script (script pubkey). The core never
// interprets script semantics — it only compares scripts for equality
// when matching outputs against derived descriptor scripts.
type Script []byte

// Equal reports whether s and other hold the same script bytes.
func (s Script) Equal(other Script) bool {
	return bytes.Equal(s, other)
}

// String returns the hex encoding of the script.
func (s Script) String() string {
	return hex.EncodeToString(s)
}

// MarshalJSON encodes the script as a hex string.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s))
}

// UnmarshalJSON decodes a hex string into the script.
func (s *Script) UnmarshalJSON(data []byte) error {
	var h string
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	if h == "" {
		*s = nil
		return nil
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return err
	}
	*s = b
	return nil
}
