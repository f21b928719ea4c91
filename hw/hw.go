// Package hw abstracts the turret hardware behind small interfaces and
// funnels every asynchronous source into the event queue from a single
// producer goroutine. Board construction is build-tagged: RP2 targets
// wire real peripherals, everything else gets simulated ones.
package hw

import (
	"context"
	"time"

	"turretcode-go/eventq"
	"turretcode-go/x/timex"
)

// RangeSensor is a distance sensor in continuous ranging mode.
type RangeSensor interface {
	Start() error
	Stop() error
	// ReadMillimeters returns the latest range. Out-of-range targets
	// report the sensor's max value, not an error.
	ReadMillimeters() (uint16, error)
}

// ServoDriver positions the pan servo. Pulse widths in microseconds.
type ServoDriver interface {
	SetPulse(us uint16) error
}

// AudioPlayer starts clip playback without blocking. Completion is
// reported on the board's PlaybackDone channel.
type AudioPlayer interface {
	Play(clip int) error
	Busy() bool
}

// CalStore persists the calibration record.
type CalStore interface {
	Load() ([]byte, error)
	Save(rec []byte) error
}

// Pin is a single output line (firing lock, indicator).
type Pin interface {
	Set(high bool)
}

// Board bundles the peripherals one turret runs on.
type Board struct {
	Sensor RangeSensor
	Servo  ServoDriver
	Audio  AudioPlayer
	Cal    CalStore
	Lock   Pin

	// Buttons delivers debounced press events by button index.
	Buttons <-chan uint8
	// PlaybackDone fires once per completed clip.
	PlaybackDone <-chan struct{}
}

// sensorFaultReads is how many consecutive failed range reads the pump
// tolerates before reporting the sensor dead.
const sensorFaultReads = 8

// Pump is the queue's single producer. It owns the tick and sample
// cadence and forwards button and playback completions; nothing else
// may call Push on q. A sensor that fails to start, or fails
// sensorFaultReads reads in a row, raises a single KindSensorFault and
// sampling stops; the loop decides what a dead sensor means. Returns
// when ctx is done.
func (b *Board) Pump(ctx context.Context, q *eventq.Queue, tickMs, sampleMs uint32) {
	tick := time.NewTicker(time.Duration(tickMs) * time.Millisecond)
	sample := time.NewTicker(time.Duration(sampleMs) * time.Millisecond)
	defer tick.Stop()
	defer sample.Stop()

	sensorDead := false
	badReads := 0
	if err := b.Sensor.Start(); err != nil {
		println("[hw] sensor start failed:", err.Error())
		sensorDead = true
		q.Push(eventq.Event{Kind: eventq.KindSensorFault, TS: timex.NowMs()})
	}
	defer b.Sensor.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			q.Push(eventq.Event{Kind: eventq.KindTick, TS: timex.NowMs()})
		case <-sample.C:
			if sensorDead {
				continue
			}
			mm, err := b.Sensor.ReadMillimeters()
			if err != nil {
				println("[hw] range read failed:", err.Error())
				badReads++
				if badReads >= sensorFaultReads {
					sensorDead = true
					q.Push(eventq.Event{Kind: eventq.KindSensorFault, TS: timex.NowMs()})
				}
				continue
			}
			badReads = 0
			q.Push(eventq.Event{Kind: eventq.KindSensorSample, Distance: mm, TS: timex.NowMs()})
		case idx := <-b.Buttons:
			q.Push(eventq.Event{Kind: eventq.KindButtonPress, Button: idx, TS: timex.NowMs()})
		case <-b.PlaybackDone:
			q.Push(eventq.Event{Kind: eventq.KindPlaybackDone, TS: timex.NowMs()})
		}
	}
}
