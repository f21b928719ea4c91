// bus/bus_test.go
package bus

import (
	"testing"
	"time"
)

func expectOneOf(t *testing.T, sub *Subscription, want any) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		if got.Payload != want {
			t.Errorf("expected payload %v, got %v", want, got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for %v", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Errorf("unexpected message: %v", got.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("turret", "state"))

	conn.Publish(conn.NewMessage(T("turret", "state"), "scanning", false))

	expectOneOf(t, sub, "scanning")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("config", "turret"), "persist", true))

	sub := conn.Subscribe(T("config", "turret"))

	expectOneOf(t, sub, "persist")
}

func TestRetainedClear(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("turret", "fault"), "hardware_fault", true))
	conn.Publish(conn.NewMessage(T("turret", "fault"), nil, true))

	sub := conn.Subscribe(T("turret", "fault"))
	expectNoMessage(t, sub)
}

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("turret", "+", "reset"))
	s2 := c.Subscribe(T("turret", "+", "+"))
	sNo := c.Subscribe(T("turret", "+", "calibrate"))

	c.Publish(c.NewMessage(T("turret", "control", "reset"), "m1", false))

	expectOneOf(t, s1, "m1")
	expectOneOf(t, s2, "m1")
	expectNoMessage(t, sNo)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sHash := c.Subscribe(T("#"))
	sTurretHash := c.Subscribe(T("turret", "#"))
	sExact := c.Subscribe(T("turret"))

	c.Publish(c.NewMessage(T("turret"), "p1", false))
	expectOneOf(t, sHash, "p1")
	expectOneOf(t, sTurretHash, "p1")
	expectOneOf(t, sExact, "p1")

	c.Publish(c.NewMessage(T("turret", "state"), "p2", false))
	expectOneOf(t, sHash, "p2")
	expectOneOf(t, sTurretHash, "p2")
	expectNoMessage(t, sExact)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(c.NewMessage(T("turret", "state"), "idle", true))
	c.Publish(c.NewMessage(T("turret", "fault"), "none", true))

	sub := c.Subscribe(T("turret", "#"))

	got := map[any]bool{}
	for i := 0; i < 2; i++ {
		select {
		case m := <-sub.Channel():
			got[m.Payload] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for retained replay")
		}
	}
	if !got["idle"] || !got["none"] {
		t.Errorf("retained replay incomplete: %v", got)
	}
}

func TestRequestReply(t *testing.T) {
	b := NewBus(4)
	server := b.NewConnection("server")
	client := b.NewConnection("client")

	ctrl := server.Subscribe(T("turret", "control", "reset"))

	reply := client.Request(T("turret", "control", "reset"), nil)
	defer reply.Unsubscribe()

	select {
	case m := <-ctrl.Channel():
		if !m.CanReply() {
			t.Fatal("request should carry ReplyTo")
		}
		server.Reply(m, "ok", false)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for control message")
	}

	expectOneOf(t, reply, "ok")
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	sub := c.Subscribe(T("turret", "state"))
	sub.Unsubscribe()

	c.Publish(c.NewMessage(T("turret", "state"), "late", false))

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("delivery after unsubscribe")
		}
	case <-time.After(20 * time.Millisecond):
	}
}
