package hw

import (
	"sync"
	"time"

	"turretcode-go/errcode"
)

// Simulated peripherals used on host builds and in tests. They are
// deliberately dumb: state setters on one side, the Board interfaces on
// the other.

// SimSensor reports a settable distance. NoTargetMM mimics a sensor
// that saturates instead of erroring when nothing is in range.
const NoTargetMM = 8190

type SimSensor struct {
	mu      sync.Mutex
	mm      uint16
	running bool
	failing bool
}

func NewSimSensor() *SimSensor { return &SimSensor{mm: NoTargetMM} }

func (s *SimSensor) SetMillimeters(mm uint16) {
	s.mu.Lock()
	s.mm = mm
	s.failing = false
	s.mu.Unlock()
}

// Fail makes every read error until the next SetMillimeters.
func (s *SimSensor) Fail() {
	s.mu.Lock()
	s.failing = true
	s.mu.Unlock()
}

func (s *SimSensor) Clear() { s.SetMillimeters(NoTargetMM) }

func (s *SimSensor) Start() error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

func (s *SimSensor) Stop() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *SimSensor) ReadMillimeters() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0, &errcode.E{C: errcode.HardwareFault, Op: "sim.read", Msg: "sensor stopped"}
	}
	if s.failing {
		return 0, &errcode.E{C: errcode.HardwareFault, Op: "sim.read", Msg: "read failure"}
	}
	return s.mm, nil
}

// SimServo records the last commanded pulse.
type SimServo struct {
	mu    sync.Mutex
	pulse uint16
}

func (s *SimServo) SetPulse(us uint16) error {
	s.mu.Lock()
	s.pulse = us
	s.mu.Unlock()
	return nil
}

func (s *SimServo) Pulse() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulse
}

// SimPlayer pretends every clip lasts ClipLen and signals completion on
// Done, matching the real player's contract.
type SimPlayer struct {
	ClipLen time.Duration
	Done    chan struct{}

	mu   sync.Mutex
	busy bool
	last int
}

func NewSimPlayer() *SimPlayer {
	return &SimPlayer{ClipLen: 10 * time.Millisecond, Done: make(chan struct{}, 1)}
}

func (p *SimPlayer) Play(clip int) error {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return &errcode.E{C: errcode.Busy, Op: "sim.play"}
	}
	p.busy = true
	p.last = clip
	p.mu.Unlock()

	go func() {
		time.Sleep(p.ClipLen)
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
		select {
		case p.Done <- struct{}{}:
		default:
		}
	}()
	return nil
}

func (p *SimPlayer) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

func (p *SimPlayer) Last() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// MemCal keeps the calibration record in memory.
type MemCal struct {
	mu  sync.Mutex
	rec []byte
}

func (m *MemCal) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, &errcode.E{C: errcode.NotFound, Op: "memcal.load"}
	}
	return append([]byte(nil), m.rec...), nil
}

func (m *MemCal) Save(rec []byte) error {
	m.mu.Lock()
	m.rec = append([]byte(nil), rec...)
	m.mu.Unlock()
	return nil
}

// SimPin records the last level set.
type SimPin struct {
	mu   sync.Mutex
	high bool
}

func (p *SimPin) Set(high bool) {
	p.mu.Lock()
	p.high = high
	p.mu.Unlock()
}

func (p *SimPin) High() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}
