package crdt

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrBadPosition = errors.New("malformed position")

// Segment is one level of a position's identifier path.
type Segment struct {
	Ident uint16
	Site  uint8
}

// Position locates one content unit in the document order. Positions form a
// dense total order: between any two distinct positions another one can
// always be generated, so concurrent inserts never collide on an offset.
//
// A Position is immutable once assigned to a unit.
type Position []Segment

// Compare orders positions lexicographically by segment, idents first and
// site IDs as the tiebreaker. A strict prefix sorts before its extensions.
func Compare(a, b Position) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Ident != b[i].Ident {
			if a[i].Ident < b[i].Ident {
				return -1
			}
			return 1
		}
		if a[i].Site != b[i].Site {
			if a[i].Site < b[i].Site {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether two positions are the same identifier.
func Equal(a, b Position) bool {
	return Compare(a, b) == 0
}

// String encodes the position as fixed-width hex segments. The encoding
// preserves order: lexicographic comparison of two encoded positions agrees
// with Compare, so stores may sort on the raw string.
func (p Position) String() string {
	var sb strings.Builder
	for _, seg := range p {
		fmt.Fprintf(&sb, "%04x%02x", seg.Ident, seg.Site)
	}
	return sb.String()
}

// ParsePosition decodes the representation produced by String.
func ParsePosition(s string) (Position, error) {
	if len(s) == 0 || len(s)%6 != 0 {
		return nil, ErrBadPosition
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrBadPosition
	}
	pos := make(Position, 0, len(raw)/3)
	for i := 0; i < len(raw); i += 3 {
		pos = append(pos, Segment{
			Ident: uint16(raw[i])<<8 | uint16(raw[i+1]),
			Site:  raw[i+2],
		})
	}
	return pos, nil
}
