// Package ring implements a FIFO byte queue that holds only unread,
// validated UTF-8 carry-over between feeds.
//
// The design mirrors a growable circular queue whose push doubles the
// backing array and re-packs head at 0, adapted from a queue of tokens to
// a queue of raw bytes.
package ring

// Ring is a FIFO byte queue. The zero value is an empty, usable Ring.
type Ring struct {
	buf        []byte
	head, tail int
	count      int
}

// minCap is the smallest backing array size allocated on first growth.
const minCap = 64

// IsEmpty reports whether the ring currently holds no bytes.
func (r *Ring) IsEmpty() bool {
	return r.count == 0
}

// Len returns the number of bytes currently queued.
func (r *Ring) Len() int {
	return r.count
}

// PushBytes appends b to the back of the queue.
func (r *Ring) PushBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	r.ensure(r.count + len(b))
	n := len(r.buf)
	for len(b) > 0 {
		space := n - r.tail
		if space > len(b) {
			space = len(b)
		}
		copy(r.buf[r.tail:], b[:space])
		r.tail = (r.tail + space) % n
		r.count += space
		b = b[space:]
	}
}

// PushString appends the bytes of s to the back of the queue.
func (r *Ring) PushString(s string) {
	r.PushBytes([]byte(s))
}

// ensure grows the backing array so it can hold at least need bytes total.
func (r *Ring) ensure(need int) {
	if need <= len(r.buf) {
		return
	}
	n := len(r.buf)
	if n == 0 {
		n = minCap
	}
	for n < need {
		n *= 2
	}
	buf := make([]byte, n)
	if r.count > 0 {
		if r.head < r.tail {
			copy(buf, r.buf[r.head:r.tail])
		} else {
			k := copy(buf, r.buf[r.head:])
			copy(buf[k:], r.buf[:r.tail])
		}
	}
	r.buf = buf
	r.head = 0
	r.tail = r.count
}

// FrontContiguous returns the longest contiguous slice at the head of the
// queue. When the queue wraps around the end of the backing array, this may
// be shorter than Len(); callers that need the full content should Drain and
// re-call, or use AppendTo.
func (r *Ring) FrontContiguous() []byte {
	if r.count == 0 {
		return nil
	}
	if r.head < r.tail {
		return r.buf[r.head:r.tail]
	}
	return r.buf[r.head:]
}

// CopyFront copies up to len(dst) bytes from the front of the queue into
// dst, without draining them, following the wraparound point if needed. It
// returns the number of bytes copied.
func (r *Ring) CopyFront(dst []byte) int {
	if r.count == 0 || len(dst) == 0 {
		return 0
	}
	n := 0
	if r.head < r.tail {
		n = copy(dst, r.buf[r.head:r.tail])
		return n
	}
	n = copy(dst, r.buf[r.head:])
	if n < len(dst) {
		n += copy(dst[n:], r.buf[:r.tail])
	}
	return n
}

// Drain removes n bytes from the front of the queue. It panics if n exceeds
// Len(), which would indicate a bookkeeping bug in the caller (the Scanner).
func (r *Ring) Drain(n int) {
	if n > r.count {
		panic("ring: drain exceeds length")
	}
	if len(r.buf) == 0 {
		return
	}
	r.head = (r.head + n) % len(r.buf)
	r.count -= n
	if r.count == 0 {
		r.head, r.tail = 0, 0
	}
}

// AppendTo appends the entire queued content to dst and returns the result,
// without draining the queue.
func (r *Ring) AppendTo(dst []byte) []byte {
	if r.count == 0 {
		return dst
	}
	if r.head < r.tail {
		return append(dst, r.buf[r.head:r.tail]...)
	}
	dst = append(dst, r.buf[r.head:]...)
	dst = append(dst, r.buf[:r.tail]...)
	return dst
}

// Reset empties the queue without releasing its backing array.
func (r *Ring) Reset() {
	r.head, r.tail, r.count = 0, 0, 0
}
