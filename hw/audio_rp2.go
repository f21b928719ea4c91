//go:build rp2040 || rp2350

package hw

import (
	"io"
	"machine"
	"sync"
	"time"

	"turretcode-go/errcode"
	"turretcode-go/simplefs"
)

// Local interface to avoid depending on an unexported concrete type in
// machine.
type audioPWM interface {
	Configure(machine.PWMConfig) error
	Channel(machine.Pin) (uint8, error)
	Set(ch uint8, value uint32)
	Top() uint32
}

// pwmPlayer streams unsigned 8-bit PCM clips from the flash image to a
// PWM carrier. Playback runs in its own goroutine; done fires once per
// finished clip.
type pwmPlayer struct {
	mu   sync.Mutex
	busy bool
	done chan struct{}

	pwm audioPWM
	ch  uint8
	ok  bool
	fs  *simplefs.FS
}

func newPWMPlayer() *pwmPlayer {
	p := &pwmPlayer{done: make(chan struct{}, 1)}

	var pwm audioPWM = machine.PWM5
	if err := pwm.Configure(machine.PWMConfig{Period: 1e9 / 40000}); err != nil {
		println("[hw] audio pwm setup failed:", err.Error())
		return p
	}
	ch, err := pwm.Channel(pinAudio)
	if err != nil {
		println("[hw] audio pin claim failed:", err.Error())
		return p
	}
	p.pwm = pwm
	p.ch = ch
	p.ok = true
	p.pwm.Set(p.ch, p.pwm.Top()/2)
	return p
}

func (p *pwmPlayer) mount() error {
	if p.fs != nil {
		return nil
	}
	fs, err := simplefs.Mount(flashImage{})
	if err != nil {
		return err
	}
	p.fs = fs
	return nil
}

func (p *pwmPlayer) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

func (p *pwmPlayer) Play(clip int) error {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return &errcode.E{C: errcode.Busy, Op: "audio.play"}
	}
	if !p.ok {
		p.mu.Unlock()
		return &errcode.E{C: errcode.HardwareFault, Op: "audio.play", Msg: "pwm unavailable"}
	}
	if err := p.mount(); err != nil {
		p.mu.Unlock()
		return err
	}
	f, err := p.fs.Open(clip)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.busy = true
	p.mu.Unlock()

	go p.stream(f)
	return nil
}

func (p *pwmPlayer) stream(f *simplefs.File) {
	const sampleGap = time.Second / audioRateHz
	top := p.pwm.Top()

	buf := make([]byte, 256)
	for {
		n, err := f.Read(buf)
		for _, s := range buf[:n] {
			p.pwm.Set(p.ch, uint32(s)*top/255)
			time.Sleep(sampleGap)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			println("[hw] clip read failed:", err.Error())
			break
		}
	}
	p.pwm.Set(p.ch, top/2)

	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
	select {
	case p.done <- struct{}{}:
	default:
	}
}
