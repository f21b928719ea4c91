// simturret runs the full control loop against the simulated board and
// exposes a small console for poking it: place and remove targets,
// press the button, and watch state transitions scroll by.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/shlex"

	"turretcode-go/bus"
	"turretcode-go/hw"
	"turretcode-go/services/config"
	"turretcode-go/services/turret"
	"turretcode-go/types"
	"turretcode-go/x/mathx"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, "sim")

	b := bus.NewBus(16)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	bootConn := b.NewConnection("boot")
	cfgSub := bootConn.Subscribe(bus.T("config", "turret"))
	m, _ := (<-cfgSub.Channel()).Payload.(map[string]any)
	cfg := types.TurretConfigFromMap(m)
	cfgSub.Unsubscribe()
	bootConn.Disconnect()

	board, sim := hw.Open()
	svc, err := turret.NewService(b.NewConnection("turret"), board, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "simturret:", err)
		os.Exit(1)
	}
	svc.Start(ctx)

	ui := b.NewConnection("ui")
	go watch(ui)

	fmt.Println("simturret console. commands: target <mm> | clear | button | arm | disarm | reset | quit")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		args, err := shlex.Split(in.Text())
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "target":
			if len(args) != 2 {
				fmt.Println("usage: target <mm>")
				continue
			}
			mm, err := strconv.ParseUint(args[1], 10, 16)
			if err != nil {
				fmt.Println("bad distance:", err)
				continue
			}
			sim.Sensor.SetMillimeters(uint16(mm))
		case "clear":
			sim.Sensor.Clear()
		case "button":
			sim.PressButton(0)
		case "arm", "disarm", "reset":
			request(ui, args[0])
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", args[0])
		}
	}
}

func request(ui *bus.Connection, verb string) {
	sub := ui.Request(bus.T("turret", "control", verb), nil)
	defer sub.Unsubscribe()
	msg := <-sub.Channel()
	switch r := msg.Payload.(type) {
	case *types.OKReply:
		fmt.Println("ok")
	case *types.ErrorReply:
		fmt.Println("error:", r.Error)
	default:
		fmt.Printf("reply: %+v\n", msg.Payload)
	}
}

func watch(ui *bus.Connection) {
	states := ui.Subscribe(bus.T("turret", "state"))
	faults := ui.Subscribe(bus.T("turret", "fault"))
	for {
		select {
		case msg := <-states.Channel():
			if st, ok := msg.Payload.(*types.TurretState); ok {
				fmt.Printf("[state] %s armed=%v angle=%d.%02d deg dist=%dmm\n",
					st.State, st.Armed, st.AngleCD/100, mathx.Abs(st.AngleCD%100), st.Distance)
			}
		case msg := <-faults.Channel():
			if f, ok := msg.Payload.(*types.FaultReport); ok {
				fmt.Printf("[fault] %s in %s\n", f.Code, f.Op)
			}
		}
	}
}
