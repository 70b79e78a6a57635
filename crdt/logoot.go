package crdt

// maxIdent is the largest identifier usable at a single path depth. The
// generator never emits ident 0: it is reserved as the virtual floor of each
// depth, which keeps "no room, descend" decisions sound.
const maxIdent = 0xffff

// Generator produces a position strictly between two neighbors. A nil bound
// means the corresponding end of the document. Calling Between repeatedly
// with the previous result as the new lower bound yields an increasing run
// of positions sharing the same upper bound, which is how a multi-unit
// insert lays out its entries.
type Generator interface {
	Between(lower, upper Position) Position
}

// SiteGenerator is a Logoot-style Generator. Site disambiguates positions
// generated concurrently by different replicas: two replicas allocating the
// same identifier at the same depth still produce distinct, totally ordered
// positions.
type SiteGenerator struct {
	Site uint8
}

func (g SiteGenerator) Between(lower, upper Position) Position {
	out := make(Position, 0, len(lower)+1)

	// The bounds only constrain the output while it still matches their
	// prefix. Once a depth diverges, that side of the interval is open.
	onLower, onUpper := true, true

	for depth := 0; ; depth++ {
		var lseg Segment
		lok := false
		if onLower {
			lseg, lok = segmentAt(lower, depth)
		}
		li := 0
		if lok {
			li = int(lseg.Ident)
		}

		ui := maxIdent + 1
		var useg Segment
		uok := false
		if onUpper {
			useg, uok = segmentAt(upper, depth)
			if uok {
				ui = int(useg.Ident)
			}
		}

		if ui-li > 1 {
			out = append(out, Segment{Ident: uint16((li + ui) / 2), Site: g.Site})
			return out
		}

		// No ident room at this depth. Keep the floor segment and descend;
		// a strict extension of the lower bound always sorts after it.
		seg := Segment{Ident: uint16(li), Site: g.Site}
		if lok {
			seg = lseg
		}
		out = append(out, seg)

		onLower = onLower && lok
		onUpper = onUpper && uok && seg == useg
	}
}

func segmentAt(p Position, depth int) (Segment, bool) {
	if depth < len(p) {
		return p[depth], true
	}
	return Segment{}, false
}
