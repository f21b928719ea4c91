// sendclips streams a filesystem image to the turret's UART loader.
// Wire protocol, all big-endian: image length (u32), the device replies
// with its block size (u16), then each block is sent as data plus its
// CRC-32/MPEG-2 and must be acked with a single 42 byte. The image is
// zero-padded to a multiple of 4 first so the device can checksum whole
// words.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"

	"turretcode-go/x/crc32m"
)

const ackByte = 42

func main() {
	port := flag.String("p", "/dev/ttyACM0", "serial port")
	baud := flag.Int("b", 115200, "baud rate")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sendclips [-p port] [-b baud] image")
		os.Exit(2)
	}

	image, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	if pad := len(image) % 4; pad != 0 {
		image = append(image, make([]byte, 4-pad)...)
	}

	dev, err := serial.Open(*port, &serial.Mode{BaudRate: *baud})
	if err != nil {
		fatal(err)
	}
	defer dev.Close()

	fmt.Printf("sending image length %d\n", len(image))
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(image)))
	if _, err := dev.Write(hdr[:]); err != nil {
		fatal(err)
	}

	var bs [2]byte
	if _, err := io.ReadFull(dev, bs[:]); err != nil {
		fatal(err)
	}
	blockSize := int(binary.BigEndian.Uint16(bs[:]))
	fmt.Printf("device block size %d\n", blockSize)

	for off := 0; off < len(image); off += blockSize {
		end := off + blockSize
		if end > len(image) {
			end = len(image)
		}
		chunk := image[off:end]

		var tail [4]byte
		binary.BigEndian.PutUint32(tail[:], crc32m.Checksum(chunk))
		if _, err := dev.Write(chunk); err != nil {
			fatal(err)
		}
		if _, err := dev.Write(tail[:]); err != nil {
			fatal(err)
		}

		var ack [1]byte
		if _, err := io.ReadFull(dev, ack[:]); err != nil {
			fatal(err)
		}
		if ack[0] != ackByte {
			fatal(fmt.Errorf("block at %d: bad ack %d", off, ack[0]))
		}
		fmt.Printf("\r%d / %d bytes", end, len(image))
	}
	fmt.Println("\ndone")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "sendclips:", err)
	os.Exit(1)
}
