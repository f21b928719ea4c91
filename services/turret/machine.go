// Package turret is the control loop: it drains the event queue one
// event at a time, runs the targeting state machine, and turns its
// decisions into servo, sound, and lock commands.
package turret

import (
	"turretcode-go/calib"
	"turretcode-go/errcode"
	"turretcode-go/eventq"
	"turretcode-go/sound"
	"turretcode-go/types"
	"turretcode-go/x/mathx"
)

type State uint8

const (
	Idle State = iota
	Scanning
	Tracking
	Firing
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Tracking:
		return "tracking"
	case Firing:
		return "firing"
	case Faulted:
		return "fault"
	default:
		return "unknown"
	}
}

// Action is what one processed event may produce: at most one servo
// command, one sound request, and one lock level.
type Action struct {
	Servo *int16
	Sound *sound.Sound
	Lock  *bool
}

func aim(a int16) *int16             { return &a }
func say(s sound.Sound) *sound.Sound { return &s }
func lock(on bool) *bool             { return &on }

// Machine owns the turret state. It is mutated only by Handle, one
// event at a time; the loop never calls it concurrently.
type Machine struct {
	cfg  types.TurretConfig
	prof calib.Profile

	state State
	armed bool
	fault errcode.Code

	sweepDir  int8  // +1 toward AngleMax
	lastAim   int16 // aim issued on the previous in-band sample
	lastSeen  int16 // angle of the most recent in-band contact
	lastLock  int64 // ms timestamp of the last in-band contact while tracking
	lastDist  uint16
	stable    int // consecutive still samples while tracking
	sinceSeen int // ticks since the last in-band sample
	fireLeft  int
	lostFire  bool // target left the band during the fire window
	scanQuiet int  // ticks since the last scan chatter
}

func NewMachine(cfg types.TurretConfig, prof calib.Profile) *Machine {
	return &Machine{cfg: cfg, prof: prof, sweepDir: 1}
}

func (m *Machine) State() State            { return m.state }
func (m *Machine) Armed() bool             { return m.armed }
func (m *Machine) FaultCode() errcode.Code { return m.fault }
func (m *Machine) LastDistance() uint16    { return m.lastDist }

// SetProfile installs a fresh calibration snapshot. Takes effect on the
// next event; any sweep target outside the new range is re-issued by
// the normal bounce logic.
func (m *Machine) SetProfile(prof calib.Profile) { m.prof = prof }

// Fault forces the terminal state. Only an explicit Reset leaves it.
func (m *Machine) Fault(code errcode.Code) Action {
	m.state = Faulted
	m.fault = code
	return Action{Lock: lock(false)}
}

// Reset re-initialises the machine after a fault or on demand. The
// turret comes back disarmed.
func (m *Machine) Reset() Action {
	m.state = Idle
	m.armed = false
	m.fault = ""
	m.sweepDir = 1
	m.stable = 0
	m.sinceSeen = 0
	m.lastLock = 0
	m.fireLeft = 0
	m.lostFire = false
	m.scanQuiet = 0
	return Action{Servo: aim(m.prof.MidAngle()), Lock: lock(false)}
}

func (m *Machine) inBand(mm uint16) bool {
	return mm >= m.cfg.BandMinMM && mm <= m.cfg.BandMaxMM
}

func (m *Machine) sweepTarget() int16 {
	if m.sweepDir > 0 {
		return m.prof.AngleMax
	}
	return m.prof.AngleMin
}

// Handle processes exactly one event. servoPos is the controller's
// current position, which doubles as the bearing of any contact the
// sensor reports.
func (m *Machine) Handle(ev eventq.Event, servoPos int16) Action {
	if m.state == Faulted {
		return Action{}
	}
	if ev.Kind == eventq.KindButtonPress {
		return m.onButton(ev.Button)
	}
	if !m.armed {
		return Action{}
	}

	switch m.state {
	case Idle:
		return m.idle(ev, servoPos)
	case Scanning:
		return m.scanning(ev, servoPos)
	case Tracking:
		return m.tracking(ev, servoPos)
	case Firing:
		return m.firing(ev)
	}
	return Action{}
}

func (m *Machine) onButton(id uint8) Action {
	if id != 0 {
		return Action{}
	}
	m.armed = !m.armed
	if !m.armed {
		m.state = Idle
		m.stable = 0
		m.fireLeft = 0
		return Action{Servo: aim(m.prof.MidAngle()), Sound: say(sound.ContactLost), Lock: lock(false)}
	}
	return Action{Sound: say(sound.Startup)}
}

func (m *Machine) idle(ev eventq.Event, servoPos int16) Action {
	switch ev.Kind {
	case eventq.KindSensorSample:
		m.lastDist = ev.Distance
		if m.inBand(ev.Distance) {
			return m.acquire(servoPos, ev.TS)
		}
	case eventq.KindTick:
		m.state = Scanning
		m.scanQuiet = 0
		return Action{Servo: aim(m.sweepTarget()), Sound: say(sound.BeginScan)}
	}
	return Action{}
}

// acquire enters Tracking on an in-band contact. A contact within
// ReacquireMs of the last lock is greeted as restored rather than new.
func (m *Machine) acquire(servoPos int16, ts int64) Action {
	m.state = Tracking
	m.lastSeen = servoPos
	m.lastAim = servoPos
	m.stable = 0
	m.sinceSeen = 0
	voice := sound.TargetAcquired
	if m.lastLock > 0 && ts-m.lastLock < int64(m.cfg.ReacquireMs) {
		voice = sound.ContactRestored
	}
	m.lastLock = ts
	return Action{Servo: aim(servoPos), Sound: say(voice)}
}

func (m *Machine) scanning(ev eventq.Event, servoPos int16) Action {
	switch ev.Kind {
	case eventq.KindSensorSample:
		m.lastDist = ev.Distance
		if !m.inBand(ev.Distance) {
			return Action{}
		}
		return m.acquire(servoPos, ev.TS)
	case eventq.KindServoReached:
		m.sweepDir = -m.sweepDir
		return Action{Servo: aim(m.sweepTarget())}
	case eventq.KindTick:
		m.scanQuiet++
		if m.cfg.IdleTicks > 0 && m.scanQuiet >= m.cfg.IdleTicks {
			m.scanQuiet = 0
			return Action{Sound: say(sound.BeginScan)}
		}
	}
	return Action{}
}

func (m *Machine) tracking(ev eventq.Event, servoPos int16) Action {
	switch ev.Kind {
	case eventq.KindSensorSample:
		m.lastDist = ev.Distance
		if !m.inBand(ev.Distance) {
			return m.loseTarget()
		}
		m.sinceSeen = 0
		m.lastSeen = servoPos
		m.lastLock = ev.TS
		// Widened before subtracting so a span near the int16 extremes
		// cannot wrap the delta.
		if mathx.Abs(int32(servoPos)-int32(m.lastAim)) <= int32(m.cfg.StableEpsilonCD) {
			m.stable++
		} else {
			m.stable = 1
		}
		m.lastAim = servoPos
		if m.stable >= m.cfg.DwellCount {
			m.state = Firing
			m.fireLeft = m.cfg.FireTicks
			m.lostFire = false
			return Action{Sound: say(sound.Fire), Lock: lock(true)}
		}
		return Action{Servo: aim(servoPos)}
	case eventq.KindTick:
		m.sinceSeen++
		if m.cfg.TrackTimeoutTick > 0 && m.sinceSeen >= m.cfg.TrackTimeoutTick {
			return m.loseTarget()
		}
	}
	return Action{}
}

func (m *Machine) loseTarget() Action {
	m.state = Scanning
	m.stable = 0
	m.scanQuiet = 0
	return Action{Servo: aim(m.sweepTarget()), Sound: say(sound.TargetLost)}
}

func (m *Machine) firing(ev eventq.Event) Action {
	switch ev.Kind {
	case eventq.KindSensorSample:
		m.lastDist = ev.Distance
		if !m.inBand(ev.Distance) {
			m.lostFire = true
		}
	case eventq.KindPlaybackDone:
		return m.endFire()
	case eventq.KindTick:
		m.fireLeft--
		if m.fireLeft <= 0 {
			return m.endFire()
		}
	}
	return Action{}
}

func (m *Machine) endFire() Action {
	m.state = Idle
	m.stable = 0
	act := Action{Lock: lock(false)}
	if m.lostFire {
		m.lostFire = false
		act.Sound = say(sound.TargetLost)
	}
	return act
}
