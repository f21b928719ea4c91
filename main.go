package main

import (
	"context"
	"time"

	"turretcode-go/bus"
	"turretcode-go/hw"
	"turretcode-go/services/config"
	"turretcode-go/services/heartbeat"
	"turretcode-go/services/turret"
	"turretcode-go/types"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot, device:", hw.DeviceID())

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, hw.DeviceID())

	// Holding the button through boot drops into the UART clip loader
	// before any service starts.
	hw.MaybeLoadClips(ctx)

	b := bus.NewBus(16)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	// The turret section is retained, so a fresh subscription sees it
	// as soon as the config service has published.
	bootConn := b.NewConnection("boot")
	cfgSub := bootConn.Subscribe(bus.T("config", "turret"))
	var cfg types.TurretConfig
	select {
	case msg := <-cfgSub.Channel():
		m, _ := msg.Payload.(map[string]any)
		cfg = types.TurretConfigFromMap(m)
	case <-time.After(3 * time.Second):
		println("[main] no turret config published, using defaults")
		cfg = types.DefaultTurretConfig()
	}
	cfgSub.Unsubscribe()
	bootConn.Disconnect()

	board, _ := hw.Open()

	svc, err := turret.NewService(b.NewConnection("turret"), board, cfg)
	if err != nil {
		println("[main] turret bring-up failed:", err.Error())
		return
	}
	svc.Start(ctx)

	_ = (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	println("[main] running")
	select {}
}
