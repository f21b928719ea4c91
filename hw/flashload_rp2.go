//go:build rp2040 || rp2350

package hw

import (
	"context"
	"encoding/binary"
	"machine"
	"time"

	"turretcode-go/errcode"
	"turretcode-go/x/crc32m"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

const (
	loadBlockLen = 4096
	loadAck      = 42
	loadBaud     = 115200
)

// MaybeLoadClips enters loader mode when the button is held at boot:
// the clip image is received over UART0 and written to flash before
// the services come up. Holding nothing skips straight to normal boot.
func MaybeLoadClips(ctx context.Context) {
	pinButton.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	time.Sleep(10 * time.Millisecond) // pull-up settle
	if pinButton.Get() {
		return
	}
	println("[hw] button held at boot, waiting for clip image")
	if err := LoadClipImage(ctx); err != nil {
		println("[hw] clip load failed:", err.Error())
		return
	}
	println("[hw] clip image flashed")
}

// LoadClipImage receives a clip image over UART0 and writes it to the
// flash image region. Wire protocol, all big-endian: the host sends the
// total length (u32), we reply with our block size (u16), then each
// block arrives as data followed by its CRC-32/MPEG-2 and is acked with
// a single 42 byte. The host zero-pads the image to a multiple of 4
// before computing CRCs.
func LoadClipImage(ctx context.Context) error {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{BaudRate: loadBaud, TX: machine.GP0, RX: machine.GP1})

	var hdr [4]byte
	if err := recvFull(ctx, u, hdr[:]); err != nil {
		return errcode.Wrap(errcode.BadImage, "flashload.len", err)
	}
	total := int(binary.BigEndian.Uint32(hdr[:]))
	if total <= 0 || int64(total) > calBlockOffset() {
		return &errcode.E{C: errcode.BadImage, Op: "flashload.len"}
	}
	println("[flashload] expecting", total, "bytes")

	blocks := (int64(total) + machine.Flash.EraseBlockSize() - 1) / machine.Flash.EraseBlockSize()
	if err := machine.Flash.EraseBlocks(0, blocks); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "flashload.erase", err)
	}

	var bs [2]byte
	binary.BigEndian.PutUint16(bs[:], loadBlockLen)
	if _, err := u.Write(bs[:]); err != nil {
		return errcode.Wrap(errcode.HardwareFault, "flashload.hello", err)
	}

	buf := make([]byte, loadBlockLen+4)
	off := 0
	for off < total {
		n := total - off
		if n > loadBlockLen {
			n = loadBlockLen
		}
		if err := recvFull(ctx, u, buf[:n+4]); err != nil {
			return errcode.Wrap(errcode.BadImage, "flashload.block", err)
		}
		want := binary.BigEndian.Uint32(buf[n : n+4])
		if got := blockCRC(buf[:n]); got != want {
			return &errcode.E{C: errcode.BadImage, Op: "flashload.crc"}
		}
		if _, err := machine.Flash.WriteAt(buf[:n], int64(off)); err != nil {
			return errcode.Wrap(errcode.HardwareFault, "flashload.write", err)
		}
		if _, err := u.Write([]byte{loadAck}); err != nil {
			return errcode.Wrap(errcode.HardwareFault, "flashload.ack", err)
		}
		off += n
	}
	println("[flashload] image stored")
	return nil
}

// blockCRC zero-pads to a word boundary to match the host tool.
func blockCRC(p []byte) uint32 {
	crc := crc32m.Checksum(p)
	if pad := len(p) % 4; pad != 0 {
		var zeros [3]byte
		crc = crc32m.Update(crc, zeros[:4-pad])
	}
	return crc
}

func recvFull(ctx context.Context, u *uartx.UART, p []byte) error {
	for got := 0; got < len(p); {
		n, err := u.RecvSomeContext(ctx, p[got:])
		if err != nil {
			return err
		}
		got += n
	}
	return nil
}
