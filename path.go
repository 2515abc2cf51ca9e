package jsonstream

import "strconv"

// PathComponent addresses one step into a JSON value: either an array
// index or an object key.
type PathComponent struct {
	IsKey bool
	Key   string
	Index uint32
}

// Index builds an array-index path component.
func Index(i uint32) PathComponent { return PathComponent{Index: i} }

// Key builds an object-key path component.
func Key(k string) PathComponent { return PathComponent{IsKey: true, Key: k} }

func (c PathComponent) String() string {
	if c.IsKey {
		return c.Key
	}
	return strconv.FormatUint(uint64(c.Index), 10)
}

// Path is an ordered list of components addressing a value within the
// document implied by the events emitted so far.
type Path []PathComponent

// clone returns an independent copy so callers may retain a Path past the
// event that produced it without aliasing the parser's internal storage.
func (p Path) clone() Path {
	if len(p) == 0 {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

func (p Path) String() string {
	s := ""
	for _, c := range p {
		if c.IsKey {
			s += "." + c.Key
		} else {
			s += "[" + c.String() + "]"
		}
	}
	return s
}
