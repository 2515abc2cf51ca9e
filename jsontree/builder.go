package jsontree

import (
	"fmt"

	"github.com/go-jsonstream/jsonstream"
)

// Builder accumulates jsonstream events into a *Value tree. It holds no
// reference to a Parser; callers drive the Parser themselves (feeding
// chunks however they receive them) and forward each event here with Push.
type Builder struct {
	root  *Value
	stack []*Value // open Array/Object values, innermost last

	// strBuf accumulates a String value's fragments until IsFinal; at most
	// one string is ever in flight, since the parser never interleaves two.
	strBuf    []byte
	strActive bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Push folds one event into the tree under construction. Call Root once
// the driving Iterator has reported Done.
func (b *Builder) Push(ev jsonstream.Event) error {
	switch ev.Kind {
	case jsonstream.Null:
		return b.attach(ev.Path, &Value{typ: Null})
	case jsonstream.Boolean:
		return b.attach(ev.Path, &Value{typ: Boolean, b: ev.Bool})
	case jsonstream.Number:
		return b.attach(ev.Path, &Value{typ: Number, n: ev.Number})
	case jsonstream.String:
		if ev.IsRaw {
			b.strBuf = append(b.strBuf, ev.Raw...)
		} else {
			b.strBuf = append(b.strBuf, ev.Text...)
		}
		b.strActive = true
		if ev.IsFinal {
			s := string(b.strBuf)
			b.strBuf = nil
			b.strActive = false
			return b.attach(ev.Path, &Value{typ: String, s: s})
		}
		return nil
	case jsonstream.ArrayStart:
		v := &Value{typ: Array}
		if err := b.attach(ev.Path, v); err != nil {
			return err
		}
		b.stack = append(b.stack, v)
		return nil
	case jsonstream.ObjectBegin:
		v := &Value{typ: Object}
		if err := b.attach(ev.Path, v); err != nil {
			return err
		}
		b.stack = append(b.stack, v)
		return nil
	case jsonstream.ArrayEnd, jsonstream.ObjectEnd:
		if len(b.stack) == 0 {
			return fmt.Errorf("jsontree: unmatched container end at %s", ev.Path)
		}
		b.stack = b.stack[:len(b.stack)-1]
		return nil
	default:
		return fmt.Errorf("jsontree: unrecognized event kind %v", ev.Kind)
	}
}

// Root returns the completed tree. It is only meaningful after the driving
// Iterator has reported the stream Done with no error.
func (b *Builder) Root() *Value { return b.root }

// attach places v at the position named by path: the document root if path
// is empty, otherwise an element of or member of the container at the top
// of the open-container stack.
func (b *Builder) attach(path jsonstream.Path, v *Value) error {
	if len(path) == 0 {
		b.root = v
		return nil
	}
	if len(b.stack) == 0 {
		return fmt.Errorf("jsontree: value at %s has no open container", path)
	}
	parent := b.stack[len(b.stack)-1]
	last := path[len(path)-1]
	if last.IsKey {
		if parent.typ != Object {
			return fmt.Errorf("jsontree: keyed value at %s inside non-object container", path)
		}
		parent.pair = append(parent.pair, Pair{Key: last.Key, Val: v})
	} else {
		if parent.typ != Array {
			return fmt.Errorf("jsontree: indexed value at %s inside non-array container", path)
		}
		parent.arr = append(parent.arr, v)
	}
	return nil
}
