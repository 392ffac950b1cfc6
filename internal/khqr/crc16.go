package khqr

import (
	"fmt"
	"strings"
)

// crcPrefix is the tag+length header of the checksum field. The CRC is
// computed over the payload body plus this prefix, then appended after it.
const crcPrefix = tagCRC + "04"

// crc16 implements CRC-16/CCITT-FALSE: polynomial 0x1021, initial register
// 0xFFFF, MSB-first, no final XOR. Check value: crc16("123456789") == 0x29B1.
func crc16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Checksum computes the four-uppercase-hex-digit CRC over body + "6304".
// The returned digits close the payload when appended after that same prefix.
func Checksum(body string) string {
	return fmt.Sprintf("%04X", crc16([]byte(body+crcPrefix)))
}

// Verify reports whether a complete payload ends with a checksum field that
// matches its preceding bytes.
func Verify(payload string) bool {
	if len(payload) < len(crcPrefix)+4 {
		return false
	}
	body := payload[:len(payload)-len(crcPrefix)-4]
	tail := payload[len(payload)-len(crcPrefix)-4:]
	if !strings.HasPrefix(tail, crcPrefix) {
		return false
	}
	return tail[len(crcPrefix):] == Checksum(body)
}
