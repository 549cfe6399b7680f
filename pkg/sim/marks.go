package sim

import "github.com/slipangle/rallyarcade/pkg/geom"

// Mark is one tire-mark sample emitted while the vehicle slides. Consumed by
// the rendering layer; not part of the physics state.
type Mark struct {
	Position    geom.Vector2 `json:"position"`
	Heading     float64      `json:"heading"`
	Slip        float64      `json:"slip"`
	Intensity   float64      `json:"intensity"`
	TimestampMs int64        `json:"timestampMs"`
}

// MarkSink receives tire marks as they are emitted.
type MarkSink interface {
	Add(m Mark)
}

// MarkBuffer is a bounded MarkSink; the oldest marks fall off first.
type MarkBuffer struct {
	buf   []Mark
	head  int
	size  int
	limit int
}

func NewMarkBuffer(limit int) *MarkBuffer {
	if limit <= 0 {
		limit = 1
	}
	return &MarkBuffer{buf: make([]Mark, limit), limit: limit}
}

func (b *MarkBuffer) Add(m Mark) {
	b.buf[b.head] = m
	b.head = (b.head + 1) % b.limit
	if b.size < b.limit {
		b.size++
	}
}

func (b *MarkBuffer) Len() int { return b.size }

// Marks returns the buffered marks, oldest first.
func (b *MarkBuffer) Marks() []Mark {
	out := make([]Mark, 0, b.size)
	start := (b.head - b.size + b.limit) % b.limit
	for i := 0; i < b.size; i++ {
		out = append(out, b.buf[(start+i)%b.limit])
	}
	return out
}

// Clear drops all buffered marks.
func (b *MarkBuffer) Clear() {
	b.head = 0
	b.size = 0
}
