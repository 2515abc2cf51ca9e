// Package pathtext is an external collaborator that coalesces a
// jsonstream event stream's fragmented String events into whole decoded
// strings, for callers who want to inspect complete string values while
// still receiving streaming container events for everything else. Like
// jsontree, it only ever touches the core's public event API.
package pathtext

import (
	"fmt"

	"github.com/go-jsonstream/jsonstream"
)

// Event mirrors jsonstream.Event but replaces a fragmented String run with
// a single coalesced one; every other Kind passes through unchanged.
type Event struct {
	Kind jsonstream.EventKind
	Path jsonstream.Path

	Bool   bool
	Number float64
	Text   string
}

// Coalescer buffers String fragments addressed by the same path and
// re-emits them as one Event once the final fragment arrives.
type Coalescer struct {
	buf    []byte
	active bool
}

// NewCoalescer returns an empty Coalescer.
func NewCoalescer() *Coalescer { return &Coalescer{} }

// Push folds one jsonstream.Event in. It returns ok=false while a string is
// still being accumulated (no event to emit yet), and ok=true with the
// event to forward otherwise.
func (c *Coalescer) Push(ev jsonstream.Event) (out Event, ok bool, err error) {
	if ev.Kind != jsonstream.String {
		if c.active {
			return Event{}, false, fmt.Errorf("pathtext: non-string event interleaved with an in-flight string at %s", ev.Path)
		}
		return Event{Kind: ev.Kind, Path: ev.Path, Bool: ev.Bool, Number: ev.Number}, true, nil
	}
	if ev.IsRaw {
		c.buf = append(c.buf, ev.Raw...)
	} else {
		c.buf = append(c.buf, ev.Text...)
	}
	c.active = true
	if !ev.IsFinal {
		return Event{}, false, nil
	}
	text := string(c.buf)
	c.buf = c.buf[:0]
	c.active = false
	return Event{Kind: jsonstream.String, Path: ev.Path, Text: text}, true, nil
}
