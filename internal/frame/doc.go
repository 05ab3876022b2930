// Package frame encodes and decodes the two datagram kinds exchanged on the
// ring: the bare token signal and the delimited data packet.
//
// Wire format:
//
//	token: 9000
//	data:  7777:<control>;<origin>;<destination>;<checksum>;<payload>
//
// The payload is everything after the fourth separator, so it may itself
// contain ';'. Identities may not.
package frame
