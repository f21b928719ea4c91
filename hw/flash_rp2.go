//go:build rp2040 || rp2350

package hw

import (
	"machine"

	"turretcode-go/errcode"
)

// Flash data region layout: the clip image starts at offset 0, the
// calibration record lives alone in the final erase block.
const calRecordLen = 25

func flashSize() int64 { return machine.Flash.Size() }

func calBlockOffset() int64 {
	return flashSize() - machine.Flash.EraseBlockSize()
}

// flashImage exposes the clip image region as simplefs storage.
type flashImage struct{}

func (flashImage) Capacity() int { return int(calBlockOffset()) }

func (flashImage) ReadAt(off int, p []byte) error {
	if off < 0 || off+len(p) > int(calBlockOffset()) {
		return &errcode.E{C: errcode.OutOfBounds, Op: "flash.read"}
	}
	_, err := machine.Flash.ReadAt(p, int64(off))
	return err
}

// flashCal persists the calibration record in the reserved block.
type flashCal struct{}

func (flashCal) Load() ([]byte, error) {
	rec := make([]byte, calRecordLen)
	if _, err := machine.Flash.ReadAt(rec, calBlockOffset()); err != nil {
		return nil, errcode.Wrap(errcode.HardwareFault, "cal.load", err)
	}
	return rec, nil
}

func (flashCal) Save(rec []byte) error {
	blk := calBlockOffset() / machine.Flash.EraseBlockSize()
	if err := machine.Flash.EraseBlocks(blk, 1); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "cal.save", err)
	}
	if _, err := machine.Flash.WriteAt(rec, calBlockOffset()); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "cal.save", err)
	}
	return nil
}
