// Package delta describes edits to a rich-text document as a sequence of
// retain/insert/delete/format operations over content units, in the style of
// character-based collaborative editors.
package delta

// Unit is one content unit of the document: a single character, or an opaque
// embeddable object described by its properties.
type Unit struct {
	Ch    string            `json:"ch,omitempty"`
	Embed map[string]string `json:"embed,omitempty"`
}

// Char wraps a single character as a Unit.
func Char(r rune) Unit {
	return Unit{Ch: string(r)}
}

// IsEmbed reports whether the unit is an embedded object rather than text.
func (u Unit) IsEmbed() bool {
	return u.Embed != nil
}

// Zero reports whether the unit carries no content at all.
func (u Unit) Zero() bool {
	return u.Ch == "" && u.Embed == nil
}

// Op is a single step of a Delta. Exactly one of the retain/insert/delete
// families applies; Attrs qualifies retains (format) and inserts (initial
// formatting).
type Op struct {
	Retain int               `json:"retain,omitempty"`
	Insert string            `json:"insert,omitempty"`
	Embed  map[string]string `json:"embed,omitempty"`
	Delete int               `json:"delete,omitempty"`
	Attrs  AttrMap           `json:"attrs,omitempty"`
}

// Delta is one user-visible change, applied atomically to the document.
type Delta []Op

func Retain(n int) Op {
	return Op{Retain: n}
}

// Format is a retain that rewrites attributes over its span.
func Format(n int, attrs AttrMap) Op {
	return Op{Retain: n, Attrs: attrs}
}

func Insert(text string, attrs AttrMap) Op {
	return Op{Insert: text, Attrs: attrs}
}

func InsertEmbed(embed map[string]string, attrs AttrMap) Op {
	return Op{Embed: embed, Attrs: attrs}
}

func Delete(n int) Op {
	return Op{Delete: n}
}

// EditKind discriminates normalized edits.
type EditKind int

const (
	EditInsert EditKind = iota
	EditDelete
	EditFormat
)

func (k EditKind) String() string {
	switch k {
	case EditInsert:
		return "insert"
	case EditDelete:
		return "delete"
	case EditFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Edit is a normalized operation: the document offset it applies to plus its
// payload. Insert carries the new units (all sharing Attrs), Delete and
// Format carry a unit count.
type Edit struct {
	Index  int
	Kind   EditKind
	Units  []Unit
	Length int
	Attrs  AttrMap
}

// Edits compacts the delta into a list of edits. Plain retains only advance
// the running index and are dropped. Inserts advance the index past the new
// units; deletes do not advance it, since every later op already addresses
// the shifted document.
func (d Delta) Edits() []Edit {
	var edits []Edit
	index := 0

	for _, op := range d {
		switch {
		case op.Insert != "":
			units := make([]Unit, 0, len(op.Insert))
			for _, r := range op.Insert {
				units = append(units, Char(r))
			}
			edits = append(edits, Edit{Index: index, Kind: EditInsert, Units: units, Attrs: op.Attrs})
			index += len(units)

		case op.Embed != nil:
			edits = append(edits, Edit{Index: index, Kind: EditInsert, Units: []Unit{{Embed: op.Embed}}, Attrs: op.Attrs})
			index++

		case op.Delete > 0:
			edits = append(edits, Edit{Index: index, Kind: EditDelete, Length: op.Delete})

		case op.Retain > 0:
			if len(op.Attrs) > 0 {
				edits = append(edits, Edit{Index: index, Kind: EditFormat, Length: op.Retain, Attrs: op.Attrs})
			}
			index += op.Retain
		}
	}

	return edits
}

// Len returns the number of units the delta inserts minus those it deletes.
func (d Delta) Len() int {
	n := 0
	for _, op := range d {
		switch {
		case op.Insert != "":
			for range op.Insert {
				n++
			}
		case op.Embed != nil:
			n++
		case op.Delete > 0:
			n -= op.Delete
		}
	}
	return n
}
