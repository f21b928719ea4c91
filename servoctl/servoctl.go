// Package servoctl turns target angles into a bounded, slew-limited
// pulse sequence. Commands are validated against the calibration
// profile before anything touches the driver; a fresh command preempts
// the trajectory in progress instead of queuing behind it.
package servoctl

import (
	"turretcode-go/calib"
	"turretcode-go/errcode"
	"turretcode-go/x/mathx"
)

// Driver is the raw actuator write, assumed synchronous and
// non-blocking at the driver level. Raw positions are pulse widths in
// microseconds.
type Driver interface {
	SetPulse(us uint16) error
}

// Config bounds trajectory generation. Rates are centidegrees per tick.
type Config struct {
	MaxRateCD   int16
	ToleranceCD int16
}

// Controller owns the trajectory state for one servo. It is used only
// from the control loop; no internal locking.
type Controller struct {
	drv  Driver
	prof calib.Profile
	cfg  Config

	pos    int16 // current commanded angle, centidegrees
	target int16
	moving bool
}

// New centres the servo and writes the initial pulse. A driver failure
// here is a HardwareFault: the board is not safe to run.
func New(drv Driver, prof calib.Profile, cfg Config) (*Controller, error) {
	if cfg.MaxRateCD <= 0 || cfg.ToleranceCD < 0 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "servoctl.new", Msg: "bad rate or tolerance"}
	}
	c := &Controller{
		drv:  drv,
		prof: prof,
		cfg:  cfg,
		pos:  prof.MidAngle(),
	}
	c.target = c.pos
	if err := c.write(c.pos); err != nil {
		return nil, err
	}
	return c, nil
}

// Command starts a trajectory toward angleCD, preempting any motion in
// progress. OutOfBounds when the target lies outside the calibrated
// span; nothing is written to the driver in that case.
func (c *Controller) Command(angleCD int16) error {
	if !mathx.Between(angleCD, c.prof.AngleMin, c.prof.AngleMax) {
		return &errcode.E{C: errcode.OutOfBounds, Op: "servoctl.command"}
	}
	c.target = angleCD
	c.moving = true
	return nil
}

// StepTick advances the trajectory by at most MaxRateCD and writes the
// new pulse. It reports reached exactly once per trajectory, when the
// position enters the tolerance band around the target. Driver failures
// surface as HardwareFault; the caller escalates.
func (c *Controller) StepTick() (reached bool, err error) {
	if !c.moving {
		return false, nil
	}

	delta := int32(c.target) - int32(c.pos)
	step := mathx.Clamp(delta, -int32(c.cfg.MaxRateCD), int32(c.cfg.MaxRateCD))
	c.pos = int16(int32(c.pos) + step)

	if err := c.write(c.pos); err != nil {
		c.moving = false
		return false, err
	}

	if mathx.Abs(int32(c.target)-int32(c.pos)) <= int32(c.cfg.ToleranceCD) {
		c.moving = false
		return true, nil
	}
	return false, nil
}

// Position returns the current commanded angle in centidegrees.
func (c *Controller) Position() int16 { return c.pos }

// Moving reports whether a trajectory is in progress.
func (c *Controller) Moving() bool { return c.moving }

// SetProfile adopts a recalibrated profile atomically, clamping the
// current position and target into the new span and re-writing the
// pulse so the physical position is defined under the new mapping.
func (c *Controller) SetProfile(p calib.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.prof = p
	c.pos = mathx.Clamp(c.pos, p.AngleMin, p.AngleMax)
	c.target = mathx.Clamp(c.target, p.AngleMin, p.AngleMax)
	return c.write(c.pos)
}

func (c *Controller) write(angleCD int16) error {
	raw, err := c.prof.RawFromAngle(angleCD)
	if err != nil {
		// Position is kept inside the span above; reaching this
		// means the invariant broke and the caller must fault.
		return err
	}
	if err := c.drv.SetPulse(raw); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "servoctl.write", err)
	}
	return nil
}
