//go:build rp2040 || rp2350

package hw

import (
	"machine"
	"time"

	"turretcode-go/errcode"

	"tinygo.org/x/drivers/servo"
	"tinygo.org/x/drivers/vl53l1x"
)

// Pin plan for the turret carrier board.
const (
	pinSDA    = machine.GP4
	pinSCL    = machine.GP5
	pinServo  = machine.GP16
	pinAudio  = machine.GP10
	pinButton = machine.GP15
	pinLock   = machine.GP22
)

const (
	rangePeriodMs  = 50
	debounceMs     = 200
	audioRateHz    = 11025
	rangeBudgetUs  = 33000
	servoBootPulse = 1500
)

// Open wires the real peripherals. The second return mirrors the host
// signature and is always nil on hardware.
func Open() (*Board, *SimBoard) {
	_ = machine.I2C0.Configure(machine.I2CConfig{SDA: pinSDA, SCL: pinSCL, Frequency: 400 * machine.KHz})

	buttons := make(chan uint8, 4)
	wireButton(buttons)

	player := newPWMPlayer()

	b := &Board{
		Sensor:       &rp2Sensor{},
		Servo:        newRP2Servo(),
		Audio:        player,
		Cal:          &flashCal{},
		Lock:         newLockPin(),
		Buttons:      buttons,
		PlaybackDone: player.done,
	}
	return b, nil
}

func DeviceID() string { return "turret-rp2" }

// ----------------------------- range sensor ----------------------------------

type rp2Sensor struct {
	dev     vl53l1x.Device
	started bool
}

func (s *rp2Sensor) Start() error {
	s.dev = vl53l1x.New(machine.I2C0)
	if !s.dev.Configure(true) {
		return &errcode.E{C: errcode.HardwareFault, Op: "vl53l1x.configure"}
	}
	s.dev.SetDistanceMode(vl53l1x.LONG)
	s.dev.SetMeasurementTimingBudget(rangeBudgetUs)
	s.dev.StartContinuous(rangePeriodMs)
	s.started = true
	return nil
}

func (s *rp2Sensor) Stop() error {
	if s.started {
		s.dev.StopContinuous()
		s.started = false
	}
	return nil
}

func (s *rp2Sensor) ReadMillimeters() (uint16, error) {
	if !s.started {
		return 0, &errcode.E{C: errcode.HardwareFault, Op: "vl53l1x.read", Msg: "not started"}
	}
	s.dev.Read(false)
	mm := s.dev.Distance()
	if mm < 0 {
		return 0, &errcode.E{C: errcode.HardwareFault, Op: "vl53l1x.read"}
	}
	if mm > 0xFFFF {
		mm = 0xFFFF
	}
	return uint16(mm), nil
}

// ----------------------------- pan servo -------------------------------------

type rp2Servo struct {
	s  servo.Servo
	ok bool
}

func newRP2Servo() *rp2Servo {
	s, err := servo.New(machine.PWM0, pinServo)
	if err != nil {
		println("[hw] servo pwm setup failed:", err.Error())
		return &rp2Servo{}
	}
	s.SetMicroseconds(servoBootPulse)
	return &rp2Servo{s: s, ok: true}
}

func (r *rp2Servo) SetPulse(us uint16) error {
	if !r.ok {
		return &errcode.E{C: errcode.HardwareFault, Op: "servo.pulse", Msg: "pwm unavailable"}
	}
	r.s.SetMicroseconds(int16(us))
	return nil
}

// ----------------------------- lock output -----------------------------------

type rp2Pin struct{ p machine.Pin }

func newLockPin() *rp2Pin {
	pinLock.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinLock.Low()
	return &rp2Pin{p: pinLock}
}

func (r *rp2Pin) Set(high bool) { r.p.Set(high) }

// ----------------------------- button ----------------------------------------

func wireButton(out chan<- uint8) {
	pinButton.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	var lastMs int64
	_ = pinButton.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		now := time.Now().UnixMilli()
		if now-lastMs < debounceMs {
			return
		}
		lastMs = now
		select {
		case out <- 0:
		default:
		}
	})
}
