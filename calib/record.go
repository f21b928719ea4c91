package calib

import (
	"encoding/binary"

	"turretcode-go/errcode"
)

// Persisted record layout, little-endian, fixed field order:
//
//	[version u8]
//	[distance_min_mm u16][distance_max_mm u16]
//	[servo_angle_min i16][servo_angle_max i16]
//	[mapping_coeffs 4×i32]
//
// The leading version byte lets a newer firmware detect a stale profile
// and fall back to defaults instead of misinterpreting bytes.
const (
	RecordVersion = 1
	RecordSize    = 1 + 2 + 2 + 2 + 2 + 4*4
)

// EncodeRecord serializes p into the fixed record layout.
func EncodeRecord(p Profile) []byte {
	buf := make([]byte, RecordSize)
	buf[0] = RecordVersion
	binary.LittleEndian.PutUint16(buf[1:], p.DistanceMinMM)
	binary.LittleEndian.PutUint16(buf[3:], p.DistanceMaxMM)
	binary.LittleEndian.PutUint16(buf[5:], uint16(p.AngleMin))
	binary.LittleEndian.PutUint16(buf[7:], uint16(p.AngleMax))
	for i, c := range p.Coeffs {
		binary.LittleEndian.PutUint32(buf[9+4*i:], uint32(c))
	}
	return buf
}

// DecodeRecord parses a persisted record. It fails closed: a wrong
// length, unknown version, or inconsistent profile yields BadRecord and
// the caller must treat the profile as absent.
func DecodeRecord(buf []byte) (Profile, error) {
	if len(buf) != RecordSize {
		return Profile{}, &errcode.E{C: errcode.BadRecord, Op: "calib.decode", Msg: "wrong length"}
	}
	if buf[0] != RecordVersion {
		return Profile{}, &errcode.E{C: errcode.BadRecord, Op: "calib.decode", Msg: "version mismatch"}
	}
	var p Profile
	p.DistanceMinMM = binary.LittleEndian.Uint16(buf[1:])
	p.DistanceMaxMM = binary.LittleEndian.Uint16(buf[3:])
	p.AngleMin = int16(binary.LittleEndian.Uint16(buf[5:]))
	p.AngleMax = int16(binary.LittleEndian.Uint16(buf[7:]))
	for i := range p.Coeffs {
		p.Coeffs[i] = int32(binary.LittleEndian.Uint32(buf[9+4*i:]))
	}
	if err := p.Validate(); err != nil {
		return Profile{}, &errcode.E{C: errcode.BadRecord, Op: "calib.decode", Err: err}
	}
	return p, nil
}
