// Package checksum provides the 32-bit integrity check carried by every data
// packet on the ring. Sender and recipient must use the same algorithm.
package checksum
