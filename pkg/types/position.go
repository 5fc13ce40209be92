package types

import (
	"encoding/json"
	"fmt"
)

// ChainPosition is a totally ordered type: confirmed positions compare by
// height and sort before every unconfirmed position. This is the one
// extension point the data model names — a wallet that needs mempool
// arrival time, for example, would add a secondary field here while
// preserving "all confirmed < all unconfirmed, confirmed ordered by
// height". This module has no caller that needs that, so Txid is used as
// the tie-breaker for positions that otherwise compare equal.
type ChainPosition struct {
	confirmed bool
	height    uint32
}

// Confirmed returns a position confirmed at the given height.
func Confirmed(height uint32) ChainPosition {
	return ChainPosition{confirmed: true, height: height}
}

// Unconfirmed returns the (single) mempool position.
func Unconfirmed() ChainPosition {
	return ChainPosition{}
}

// IsConfirmed reports whether p represents a confirmed position.
func (p ChainPosition) IsConfirmed() bool {
	return p.confirmed
}

// Height returns the confirmation height and true if p is confirmed, or
// (0, false) if p is unconfirmed.
func (p ChainPosition) Height() (uint32, bool) {
	return p.height, p.confirmed
}

// Compare returns -1, 0, or 1 as p sorts before, equal to, or after other.
// All confirmed positions precede all unconfirmed ones; confirmed
// positions compare by height.
func (p ChainPosition) Compare(other ChainPosition) int {
	if p.confirmed != other.confirmed {
		if p.confirmed {
			return -1
		}
		return 1
	}
	if !p.confirmed {
		return 0
	}
	switch {
	case p.height < other.height:
		return -1
	case p.height > other.height:
		return 1
	default:
		return 0
	}
}

// String renders the position as "confirmed(h)" or "unconfirmed".
func (p ChainPosition) String() string {
	if !p.confirmed {
		return "unconfirmed"
	}
	return fmt.Sprintf("confirmed(%d)", p.height)
}

type chainPositionJSON struct {
	Confirmed bool   `json:"confirmed"`
	Height    uint32 `json:"height,omitempty"`
}

// MarshalJSON encodes the position as its confirmed flag and height.
func (p ChainPosition) MarshalJSON() ([]byte, error) {
	return json.Marshal(chainPositionJSON{Confirmed: p.confirmed, Height: p.height})
}

// UnmarshalJSON decodes a position encoded by MarshalJSON.
func (p *ChainPosition) UnmarshalJSON(data []byte) error {
	var j chainPositionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	p.confirmed = j.Confirmed
	p.height = j.Height
	return nil
}
