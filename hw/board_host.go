//go:build !rp2040 && !rp2350

package hw

import (
	"context"
	"os"
)

// MaybeLoadClips is the boot-time loader hook. Host builds have no UART
// loader; clip images are built offline with buildfs instead.
func MaybeLoadClips(context.Context) {}

// Open builds a fully simulated board for host runs and tests. The
// returned SimBoard exposes the simulated peripherals for poking.
func Open() (*Board, *SimBoard) {
	sensor := NewSimSensor()
	servo := &SimServo{}
	player := NewSimPlayer()
	cal := &MemCal{}
	lock := &SimPin{}
	buttons := make(chan uint8, 4)

	b := &Board{
		Sensor:       sensor,
		Servo:        servo,
		Audio:        player,
		Cal:          cal,
		Lock:         lock,
		Buttons:      buttons,
		PlaybackDone: player.Done,
	}
	sim := &SimBoard{
		Sensor:  sensor,
		Servo:   servo,
		Player:  player,
		Cal:     cal,
		Lock:    lock,
		Buttons: buttons,
	}
	return b, sim
}

// SimBoard is the write side of a simulated Board.
type SimBoard struct {
	Sensor  *SimSensor
	Servo   *SimServo
	Player  *SimPlayer
	Cal     *MemCal
	Lock    *SimPin
	Buttons chan<- uint8
}

// PressButton injects a debounced press.
func (s *SimBoard) PressButton(idx uint8) {
	select {
	case s.Buttons <- idx:
	default:
	}
}

// DeviceID identifies the config profile to load.
func DeviceID() string {
	if id := os.Getenv("TURRET_DEVICE"); id != "" {
		return id
	}
	return "sim"
}
