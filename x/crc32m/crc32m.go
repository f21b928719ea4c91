// Package crc32m implements CRC-32/MPEG-2: polynomial 0x04C11DB7,
// initial value 0xFFFFFFFF, no bit reflection, no final xor. This is
// the checksum produced by the STM32 hardware CRC unit on big-endian
// words, which the clip-image transfer protocol uses. hash/crc32 only
// provides reflected variants, so the 8-step shift loop is spelled out.
package crc32m

const poly = 0x04C11DB7

// Update adds p to a running checksum.
func Update(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Checksum returns the CRC-32/MPEG-2 of p.
func Checksum(p []byte) uint32 { return Update(0xFFFFFFFF, p) }
