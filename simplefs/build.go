package simplefs

import (
	"encoding/binary"

	"turretcode-go/errcode"
)

// Input is one file to place into an image, in directory order. The
// clip table indexes files by position, so order matters.
type Input struct {
	Name string
	Data []byte
}

// BuildImage assembles a complete filesystem image. Used by the image
// build tool and by tests; the firmware itself only reads.
func BuildImage(files []Input) ([]byte, error) {
	if len(files) > 0xFFFF {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "simplefs.build", Msg: "too many files"}
	}
	for _, f := range files {
		if len(f.Name) > MaxNameBytes {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "simplefs.build", Msg: "name too long: " + f.Name}
		}
	}

	dataOff := headerSize + len(files)*entrySize
	total := dataOff
	for _, f := range files {
		total += len(f.Data)
	}

	img := make([]byte, total)
	binary.BigEndian.PutUint64(img, Signature)
	binary.BigEndian.PutUint16(img[8:], uint16(len(files)))

	off := dataOff
	for i, f := range files {
		rec := img[headerSize+i*entrySize:]
		copy(rec[:MaxNameBytes], f.Name)
		binary.BigEndian.PutUint32(rec[MaxNameBytes:], uint32(off))
		binary.BigEndian.PutUint32(rec[MaxNameBytes+4:], uint32(len(f.Data)))
		copy(img[off:], f.Data)
		off += len(f.Data)
	}

	return img, nil
}

// Bytes adapts an in-memory image to the Storage interface.
type Bytes []byte

func (b Bytes) Capacity() int { return len(b) }

func (b Bytes) ReadAt(off int, p []byte) error {
	if off < 0 || off+len(p) > len(b) {
		return errcode.OutOfRange
	}
	copy(p, b[off:])
	return nil
}
