package transport

// prefetchStack is the small LIFO (capacity PrefetchCapacity) PPS
// "peek then push back" uses: bytes the PPS exchange read but decided
// were not part of a valid PPS request are pushed back here, and
// ReceiveByte drains this before touching the wire. Because it only
// ever holds bytes the caller has just rejected, this is never
// observable as reordering at the APDU layer (§4.1).
type prefetchStack struct {
	buf [PrefetchCapacity]byte
	n   int
}

func (p *prefetchStack) push(b byte) {
	if p.n < len(p.buf) {
		p.buf[p.n] = b
		p.n++
	}
}

func (p *prefetchStack) pop() (byte, bool) {
	if p.n == 0 {
		return 0, false
	}
	p.n--
	return p.buf[p.n], true
}

func (p *prefetchStack) clear() { p.n = 0 }

// pushBack pushes bytes so that popping them later reproduces bytes
// in their original left-to-right order: the last element is pushed
// first (ends up deepest), the first element is pushed last (ends up
// on top, so it's the first one popped).
func (p *prefetchStack) pushBack(bytes []byte) {
	for i := len(bytes) - 1; i >= 0; i-- {
		p.push(bytes[i])
	}
}
