package delta

// Attr is a tagged attribute value: either set to a concrete value or an
// explicit unset. A key missing from an AttrMap carries no meaning; clearing
// is always spelled out with the Unset sentinel.
type Attr struct {
	Value string `json:"value,omitempty"`
	Unset bool   `json:"unset,omitempty"`
}

// Set returns an attribute carrying a value.
func Set(value string) Attr {
	return Attr{Value: value}
}

// Unset returns the clearing sentinel.
func Unset() Attr {
	return Attr{Unset: true}
}

// AttrMap maps attribute names to tagged values.
type AttrMap map[string]Attr

// Clone returns an independent copy of the map.
func (m AttrMap) Clone() AttrMap {
	if m == nil {
		return nil
	}
	out := make(AttrMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Values flattens the map to the plain name→value form kept by readers,
// dropping unset entries.
func (m AttrMap) Values() map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if !v.Unset {
			out[k] = v.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
