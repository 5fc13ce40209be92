package types

import "fmt"

// BlockId identifies a point on a chain: a height and the hash of the
// block at that height.
type BlockId struct {
	Height uint32 `json:"height"`
	Hash   Hash   `json:"hash"`
}

// String returns "height:hash".
func (b BlockId) String() string {
	return fmt.Sprintf("%d:%s", b.Height, b.Hash)
}

// IsZero reports whether b is the zero value (no block).
func (b BlockId) IsZero() bool {
	return b.Height == 0 && b.Hash.IsZero()
}
