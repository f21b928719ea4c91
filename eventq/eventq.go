// Package eventq provides the bounded event queue between interrupt-side
// producers and the turret control loop. It is a single-producer,
// single-consumer ring: all hardware sources (sensor ready, tick timer,
// button edges, playback completion) are funnelled through one producer
// context, and only the control loop pops. The atomic head/tail indices
// are the sole synchronization point crossing that boundary; Push never
// blocks and never allocates.
package eventq

import (
	"sync/atomic"

	"turretcode-go/errcode"
)

// Kind tags an Event.
type Kind uint8

const (
	KindNone Kind = iota
	KindSensorSample
	KindTick
	KindButtonPress
	KindServoReached
	KindPlaybackDone
	KindSensorFault
)

func (k Kind) String() string {
	switch k {
	case KindSensorSample:
		return "sensor_sample"
	case KindTick:
		return "tick"
	case KindButtonPress:
		return "button_press"
	case KindServoReached:
		return "servo_reached"
	case KindPlaybackDone:
		return "playback_done"
	case KindSensorFault:
		return "sensor_fault"
	default:
		return "none"
	}
}

// Critical kinds are never dropped by the overflow policy: a stale aim
// is recoverable, a lost button edge, playback completion, or sensor
// fault is not.
func (k Kind) Critical() bool {
	switch k {
	case KindButtonPress, KindServoReached, KindPlaybackDone, KindSensorFault:
		return true
	default:
		return false
	}
}

// Event is a flat tagged record. Fields beyond Kind and TS are
// meaningful only for the kinds noted. Immutable once pushed.
type Event struct {
	Kind     Kind
	Button   uint8  // KindButtonPress
	Distance uint16 // KindSensorSample, millimetres
	Angle    int16  // KindServoReached, bearing in centidegrees
	TS       int64  // produced timestamp, milliseconds
}

// Queue is the bounded event ring plus a consumer-owned deferred FIFO.
//
// Overflow policy: the top `reserve` slots of the ring are usable only
// by critical kinds. A SensorSample or Tick push that would eat into
// the reserve is refused (drop-newest) and counted; critical pushes are
// accepted until the ring is completely full. With the reserve sized to
// the number of critical sources (each has at most one edge outstanding
// between pops) a critical event is never refused in practice; the
// full-ring refusal below only guards a mis-sized reserve.
//
// The deferred FIFO carries events generated by the consumer itself
// (ServoReached from trajectory stepping). It never crosses the
// producer boundary, so consumer-side production cannot race the ring
// indices. Pop drains deferred events first: they stem from events that
// arrived earlier than anything still buffered in the ring.
type Queue struct {
	buf     []Event
	mask    uint32
	rd      atomic.Uint32 // consumer index (monotonic)
	wr      atomic.Uint32 // producer index (monotonic)
	reserve uint32
	drops   atomic.Uint32

	readable chan struct{} // capacity 1; a pending token means events may be waiting

	deferred []Event // consumer-owned, loop side only
}

// New creates a queue. size must be a power of two >= 4; reserve slots
// are held back for critical kinds and must leave room for at least one
// droppable event.
func New(size, reserve int) *Queue {
	if size < 4 || size&(size-1) != 0 {
		panic("eventq: size must be power of two >= 4")
	}
	if reserve < 0 || reserve >= size {
		panic("eventq: reserve must be in [0, size)")
	}
	return &Queue{
		buf:      make([]Event, size),
		mask:     uint32(size - 1),
		reserve:  uint32(reserve),
		readable: make(chan struct{}, 1),
	}
}

// Push appends an event from the producer context. It is wait-free and
// bounded in execution time. Returns errcode.Overflow when the policy
// refuses the event.
func (q *Queue) Push(ev Event) error {
	rd := q.rd.Load()
	wr := q.wr.Load()
	used := wr - rd

	limit := uint32(len(q.buf))
	if !ev.Kind.Critical() {
		limit -= q.reserve
	}
	if used >= limit {
		q.drops.Add(1)
		return errcode.Overflow
	}

	q.buf[wr&q.mask] = ev
	q.wr.Store(wr + 1) // release

	// Non-blocking notify on every push; a pending token already
	// guarantees a wakeup, so losing the send here is safe.
	select {
	case q.readable <- struct{}{}:
	default:
	}
	return nil
}

// Defer appends a consumer-generated event. Loop side only.
func (q *Queue) Defer(ev Event) {
	q.deferred = append(q.deferred, ev)
}

// Pop removes the next event. Loop side only.
func (q *Queue) Pop() (Event, bool) {
	if len(q.deferred) > 0 {
		ev := q.deferred[0]
		copy(q.deferred, q.deferred[1:])
		q.deferred = q.deferred[:len(q.deferred)-1]
		return ev, true
	}

	rd := q.rd.Load()
	wr := q.wr.Load() // acquire
	if wr == rd {
		return Event{}, false
	}
	ev := q.buf[rd&q.mask]
	q.rd.Store(rd + 1) // release
	return ev, true
}

// Len reports buffered ring events (excludes deferred).
func (q *Queue) Len() int {
	return int(q.wr.Load() - q.rd.Load())
}

// Drops reports how many pushes the overflow policy has refused.
func (q *Queue) Drops() uint32 { return q.drops.Load() }

// Readable wakes the control loop after a push; drain until Pop is
// empty before sleeping on it again.
func (q *Queue) Readable() <-chan struct{} { return q.readable }
