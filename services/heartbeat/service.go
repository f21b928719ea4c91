// Package heartbeat logs a periodic liveness line with the current
// turret state, so a serial console shows at a glance that the loop is
// alive and what it thinks it is doing.
package heartbeat

import (
	"context"
	"time"

	"turretcode-go/bus"
	"turretcode-go/types"
	"turretcode-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicTurretState     = bus.T("turret", "state")
)

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer cfgSub.Unsubscribe()
	stateSub := conn.Subscribe(topicTurretState)
	defer stateSub.Unsubscribe()

	start := timex.NowMs()
	last := "unknown"

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			println("[heartbeat] up", (timex.NowMs()-start)/1000, "s, turret", last)
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(*types.TurretState); ok {
				last = st.State
			}
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := types.AsInt(m["interval"]); ok && iv > 0 {
					tick.Reset(time.Duration(iv) * time.Second)
					println("[heartbeat] interval set to", iv, "seconds")
				}
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
