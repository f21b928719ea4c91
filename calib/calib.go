// Package calib maps raw sensor and servo units to physical units and
// back. A Profile is an immutable snapshot; recalibration replaces the
// whole value. All transforms are pure and refuse to extrapolate:
// anything outside the declared domain returns OutOfRange, because
// undefined extrapolation is how servos get driven past their stops.
package calib

import (
	"turretcode-go/errcode"
	"turretcode-go/x/mathx"
)

// Profile declares the calibrated domain and the servo raw<->angle
// mapping. Angles are centidegrees. The servo mapping is affine:
//
//	angle_cd = raw*Coeffs[0]/Coeffs[1] + Coeffs[2]
//
// Coeffs[3] is reserved and kept for record-layout stability.
type Profile struct {
	DistanceMinMM uint16
	DistanceMaxMM uint16
	AngleMin      int16
	AngleMax      int16
	Coeffs        [4]int32
}

// Default is the compiled-in fallback used when no valid persisted
// record exists: a 50–2000 mm ranging domain and a ±90° servo driven by
// 600–2400 µs pulses.
func Default() Profile {
	return Profile{
		DistanceMinMM: 50,
		DistanceMaxMM: 2000,
		AngleMin:      -9000,
		AngleMax:      9000,
		Coeffs:        [4]int32{10, 1, -15000, 0},
	}
}

// Validate checks internal consistency before a profile is adopted.
func (p Profile) Validate() error {
	if p.DistanceMinMM >= p.DistanceMaxMM {
		return &errcode.E{C: errcode.InvalidParams, Op: "calib.validate", Msg: "distance domain empty"}
	}
	if p.AngleMin >= p.AngleMax {
		return &errcode.E{C: errcode.InvalidParams, Op: "calib.validate", Msg: "angle domain empty"}
	}
	if p.Coeffs[0] == 0 || p.Coeffs[1] <= 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "calib.validate", Msg: "degenerate mapping"}
	}
	return nil
}

// Distance validates a raw ranging reading against the calibrated
// domain and returns it in millimetres. The VL53L1X already reports
// millimetres, so the transform is a guarded identity; readings outside
// the domain (sensor max-range noise, objects past the arena) are
// OutOfRange and callers treat them as no-contact.
func (p Profile) Distance(raw uint16) (uint16, error) {
	if !mathx.Between(raw, p.DistanceMinMM, p.DistanceMaxMM) {
		return 0, errcode.OutOfRange
	}
	return raw, nil
}

// Angle converts a raw servo position (pulse width, µs) to
// centidegrees. OutOfRange when the result falls outside the calibrated
// angle span.
func (p Profile) Angle(raw uint16) (int16, error) {
	cd := mathx.RoundDiv(int64(raw)*int64(p.Coeffs[0]), int64(p.Coeffs[1])) + int64(p.Coeffs[2])
	if !mathx.Between(cd, int64(p.AngleMin), int64(p.AngleMax)) {
		return 0, errcode.OutOfRange
	}
	return int16(cd), nil
}

// RawFromAngle inverts Angle for command generation. The round trip
// Angle(RawFromAngle(a)) is within the quantization step of the
// mapping (Coeffs[0]/Coeffs[1] centidegrees per raw unit).
func (p Profile) RawFromAngle(cd int16) (uint16, error) {
	if !mathx.Between(cd, p.AngleMin, p.AngleMax) {
		return 0, errcode.OutOfRange
	}
	raw := mathx.RoundDiv((int64(cd)-int64(p.Coeffs[2]))*int64(p.Coeffs[1]), int64(p.Coeffs[0]))
	if raw < 0 || raw > 65535 {
		return 0, errcode.OutOfRange
	}
	return uint16(raw), nil
}

// MidAngle returns the centre of the calibrated angle span; the servo
// parks here at startup and after a reset.
func (p Profile) MidAngle() int16 {
	return int16((int32(p.AngleMin) + int32(p.AngleMax)) / 2)
}

// QuantizationCD returns the worst-case rounding error of the raw<->
// angle round trip in centidegrees.
func (p Profile) QuantizationCD() int16 {
	step := mathx.RoundDiv(int64(mathx.Abs(p.Coeffs[0])), int64(p.Coeffs[1]))
	if step < 1 {
		step = 1
	}
	return int16((step + 1) / 2)
}
