package eventq

import (
	"testing"
	"time"

	"turretcode-go/errcode"
)

func TestFIFOOrder(t *testing.T) {
	q := New(8, 2)

	for i := 0; i < 5; i++ {
		if err := q.Push(Event{Kind: KindSensorSample, Distance: uint16(100 + i)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		ev, ok := q.Pop()
		if !ok {
			t.Fatalf("pop %d: queue empty", i)
		}
		if ev.Distance != uint16(100+i) {
			t.Errorf("pop %d: distance %d, want %d", i, ev.Distance, 100+i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("queue should be empty")
	}
}

func TestOverflowDropsNewestSensorSamples(t *testing.T) {
	q := New(8, 2)

	// Fill the unreserved region (6 slots) with sensor samples.
	for i := 0; i < 6; i++ {
		if err := q.Push(Event{Kind: KindSensorSample, Distance: uint16(i)}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	// The next sensor sample must be refused: drop-newest.
	err := q.Push(Event{Kind: KindSensorSample, Distance: 999})
	if !errcode.Is(err, errcode.Overflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if q.Drops() != 1 {
		t.Errorf("drops = %d, want 1", q.Drops())
	}

	// Buffered samples are the oldest ones, untouched.
	for i := 0; i < 6; i++ {
		ev, ok := q.Pop()
		if !ok || ev.Distance != uint16(i) {
			t.Fatalf("pop %d: got %+v ok=%v", i, ev, ok)
		}
	}
}

func TestCriticalEventsUseReserve(t *testing.T) {
	q := New(8, 2)

	for i := 0; i < 6; i++ {
		if err := q.Push(Event{Kind: KindSensorSample}); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}

	// Ring is sensor-full; critical kinds still fit in the reserve.
	if err := q.Push(Event{Kind: KindButtonPress, Button: 0}); err != nil {
		t.Fatalf("button push refused: %v", err)
	}
	if err := q.Push(Event{Kind: KindPlaybackDone}); err != nil {
		t.Fatalf("playback push refused: %v", err)
	}

	// Ticks must not eat the reserve either.
	if err := q.Push(Event{Kind: KindTick}); !errcode.Is(err, errcode.Overflow) {
		t.Fatalf("tick should overflow, got %v", err)
	}

	// The critical events are still delivered, in arrival order.
	kinds := []Kind{}
	for {
		ev, ok := q.Pop()
		if !ok {
			break
		}
		kinds = append(kinds, ev.Kind)
	}
	if len(kinds) != 8 {
		t.Fatalf("popped %d events, want 8", len(kinds))
	}
	if kinds[6] != KindButtonPress || kinds[7] != KindPlaybackDone {
		t.Errorf("critical events out of order: %v", kinds)
	}
}

func TestDeferredPopsFirst(t *testing.T) {
	q := New(8, 2)

	if err := q.Push(Event{Kind: KindSensorSample}); err != nil {
		t.Fatal(err)
	}
	q.Defer(Event{Kind: KindServoReached, Angle: -4500})

	ev, ok := q.Pop()
	if !ok || ev.Kind != KindServoReached || ev.Angle != -4500 {
		t.Fatalf("first pop = %+v, want deferred servo_reached at -4500", ev)
	}
	ev, ok = q.Pop()
	if !ok || ev.Kind != KindSensorSample {
		t.Fatalf("second pop = %+v, want sensor_sample", ev)
	}
}

func TestReadableNotifiesOnPush(t *testing.T) {
	q := New(8, 2)

	select {
	case <-q.Readable():
		t.Fatal("readable before any push")
	default:
	}

	if err := q.Push(Event{Kind: KindTick}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-q.Readable():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no wakeup after push into empty queue")
	}
}

func TestProducerConsumerSmoke(t *testing.T) {
	q := New(16, 4)
	const total = 10000

	go func() {
		sent := 0
		for sent < total {
			if q.Push(Event{Kind: KindButtonPress, Distance: uint16(sent)}) == nil {
				sent++
			}
		}
	}()

	got := 0
	deadline := time.Now().Add(5 * time.Second)
	for got < total {
		if ev, ok := q.Pop(); ok {
			if ev.Distance != uint16(got) {
				t.Fatalf("event %d out of order: %d", got, ev.Distance)
			}
			got++
			continue
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %d events", got)
		}
	}
}
