package calib

import (
	"testing"

	"turretcode-go/errcode"
	"turretcode-go/x/mathx"
)

func TestDistanceDomain(t *testing.T) {
	p := Default()

	for _, raw := range []uint16{50, 100, 400, 1200, 2000} {
		mm, err := p.Distance(raw)
		if err != nil {
			t.Errorf("Distance(%d): %v", raw, err)
		}
		if mm != raw {
			t.Errorf("Distance(%d) = %d", raw, mm)
		}
	}

	for _, raw := range []uint16{0, 49, 2001, 8190} {
		if _, err := p.Distance(raw); !errcode.Is(err, errcode.OutOfRange) {
			t.Errorf("Distance(%d): expected out_of_range, got %v", raw, err)
		}
	}
}

func TestAngleMonotonic(t *testing.T) {
	p := Default()

	prev, err := p.Angle(600)
	if err != nil {
		t.Fatalf("Angle(600): %v", err)
	}
	for raw := uint16(601); raw <= 2400; raw++ {
		cd, err := p.Angle(raw)
		if err != nil {
			t.Fatalf("Angle(%d): %v", raw, err)
		}
		if cd < prev {
			t.Fatalf("Angle not monotonic at raw %d: %d < %d", raw, cd, prev)
		}
		prev = cd
	}
}

func TestAngleEndpoints(t *testing.T) {
	p := Default()

	if cd, err := p.Angle(600); err != nil || cd != -9000 {
		t.Errorf("Angle(600) = %d, %v; want -9000", cd, err)
	}
	if cd, err := p.Angle(2400); err != nil || cd != 9000 {
		t.Errorf("Angle(2400) = %d, %v; want 9000", cd, err)
	}
	if _, err := p.Angle(599); !errcode.Is(err, errcode.OutOfRange) {
		t.Errorf("Angle(599): expected out_of_range, got %v", err)
	}
	if _, err := p.Angle(2401); !errcode.Is(err, errcode.OutOfRange) {
		t.Errorf("Angle(2401): expected out_of_range, got %v", err)
	}
}

func TestRawAngleRoundTrip(t *testing.T) {
	p := Default()
	q := p.QuantizationCD()

	for cd := int32(p.AngleMin); cd <= int32(p.AngleMax); cd += 37 {
		raw, err := p.RawFromAngle(int16(cd))
		if err != nil {
			t.Fatalf("RawFromAngle(%d): %v", cd, err)
		}
		back, err := p.Angle(raw)
		if err != nil {
			t.Fatalf("Angle(%d): %v", raw, err)
		}
		if mathx.Abs(int32(back)-cd) > int32(q) {
			t.Fatalf("round trip %d -> %d -> %d exceeds quantization %d", cd, raw, back, q)
		}
	}
}

func TestRawFromAngleRejectsOvertravel(t *testing.T) {
	p := Default()

	for _, cd := range []int16{-9001, 9001, -32768, 32767} {
		if _, err := p.RawFromAngle(cd); !errcode.Is(err, errcode.OutOfRange) {
			t.Errorf("RawFromAngle(%d): expected out_of_range, got %v", cd, err)
		}
	}
}

func TestValidate(t *testing.T) {
	good := Default()
	if err := good.Validate(); err != nil {
		t.Errorf("default profile invalid: %v", err)
	}

	bad := Default()
	bad.DistanceMinMM, bad.DistanceMaxMM = 2000, 50
	if err := bad.Validate(); err == nil {
		t.Error("empty distance domain accepted")
	}

	bad = Default()
	bad.Coeffs[0] = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero slope accepted")
	}
}

func TestMidAngle(t *testing.T) {
	p := Default()
	if p.MidAngle() != 0 {
		t.Errorf("MidAngle = %d, want 0", p.MidAngle())
	}
}
