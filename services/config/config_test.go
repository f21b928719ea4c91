package config

import (
	"context"
	"testing"
	"time"

	"turretcode-go/bus"
	"turretcode-go/types"
)

func TestPublishEmbeddedRetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "testdev" {
			return nil, false
		}
		return []byte(`{
			"turret": {"band_max_mm": 600, "dwell_count": 3},
			"heartbeat": {"interval": 7}
		}`), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "testdev")
	svc.Start(ctx, conn)
	time.Sleep(50 * time.Millisecond)

	// Retained messages replay on a late subscription.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))
	defer sub.Unsubscribe()

	got := map[string]any{}
	deadline := time.After(time.Second)
	for len(got) < 2 {
		select {
		case m := <-sub.Channel():
			got[m.Topic.At(m.Topic.Len()-1)] = m.Payload
		case <-deadline:
			t.Fatalf("got %d keys, want 2", len(got))
		}
	}

	tm, ok := got["turret"].(map[string]any)
	if !ok {
		t.Fatalf("turret section type %T", got["turret"])
	}
	cfg := types.TurretConfigFromMap(tm)
	if cfg.BandMaxMM != 600 || cfg.DwellCount != 3 {
		t.Fatalf("decoded config = %+v", cfg)
	}
	if cfg.TickMs != types.DefaultTurretConfig().TickMs {
		t.Fatal("missing keys did not fall back to defaults")
	}
}

func TestEmbeddedDeviceProfilesDecode(t *testing.T) {
	for _, dev := range []string{"sim", "turret-rp2"} {
		raw, ok := EmbeddedConfigLookup(dev)
		if !ok {
			t.Fatalf("no embedded config for %q", dev)
		}
		b := bus.NewBus(16)
		conn := b.NewConnection("probe")
		svc := NewConfigService()
		oldLookup := EmbeddedConfigLookup
		EmbeddedConfigLookup = func(string) ([]byte, bool) { return raw, true }
		svc.Start(context.WithValue(context.Background(), CtxDeviceKey, dev), conn)
		time.Sleep(50 * time.Millisecond)
		EmbeddedConfigLookup = oldLookup

		sub := conn.Subscribe(bus.T(configPrefix, "turret"))
		select {
		case m := <-sub.Channel():
			if _, ok := m.Payload.(map[string]any); !ok {
				t.Fatalf("%s: turret payload type %T", dev, m.Payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: turret config never published", dev)
		}
		sub.Unsubscribe()
	}
}
