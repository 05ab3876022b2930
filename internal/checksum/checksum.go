package checksum

import "hash/crc32"

// Sum computes the CRC-32 (IEEE) checksum of the payload.
func Sum(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}

// Verify reports whether the payload matches the expected checksum.
func Verify(payload []byte, expected uint32) bool {
	return Sum(payload) == expected
}
