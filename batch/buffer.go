package batch

import (
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Buffer is the flattened input and output of one batch. It is allocated when
// a scheduler starts and reused for every batch until it stops.
type Buffer struct {
	Positions []r3.Vec
	Forces    []r3.Vec
	Lengths   []int

	slots []*slot
}

func newBuffer() *Buffer {
	return &Buffer{
		Positions: make([]r3.Vec, 0, 256),
		Forces:    make([]r3.Vec, 0, 256),
		Lengths:   make([]int, 0, 16),
		slots:     make([]*slot, 0, 16),
	}
}

// flatten gathers sample positions from every slot in order.
func (b *Buffer) flatten(order []*slot) {
	b.Positions = b.Positions[:0]
	b.Lengths = b.Lengths[:0]
	clear(b.slots)
	b.slots = b.slots[:0]

	for _, s := range order {
		before := len(b.Positions)
		b.Positions = s.sub.AppendSamplePositions(b.Positions)
		b.Lengths = append(b.Lengths, len(b.Positions)-before)
		b.slots = append(b.slots, s)
	}

	n := len(b.Positions)
	if cap(b.Forces) < n {
		b.Forces = make([]r3.Vec, n)
	}
	b.Forces = b.Forces[:n]
}

// delivery is one subscriber's share of a completed batch.
type delivery struct {
	sub    Subscriber
	forces []r3.Vec
}

// unflatten splits Forces back by Lengths. Slots rejected by keep are
// skipped but their range is still consumed, so later slots stay aligned.
// Each kept slot caches a copy of its range, and each delivery carries
// another copy the subscriber may keep and modify.
func (b *Buffer) unflatten(keep func(*slot) bool) (out []delivery, skipped int) {
	offset := 0
	for i, s := range b.slots {
		n := b.Lengths[i]
		seg := b.Forces[offset : offset+n]
		offset += n

		if !keep(s) {
			skipped++
			continue
		}
		s.results = slices.Clone(seg)
		if s.results == nil {
			s.results = []r3.Vec{}
		}
		s.delivered = true
		out = append(out, delivery{sub: s.sub, forces: slices.Clone(s.results)})
	}
	return out, skipped
}

// release drops every reference so the buffer holds no subscriber.
func (b *Buffer) release() {
	clear(b.slots)
	*b = Buffer{}
}
