package imageops

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/opd-ai/framewright/pixel"
)

// Digest returns the BLAKE2b-256 hash of an image's description and pixels.
// Images that differ in a single byte or in their dimensions hash differently.
func Digest(img *pixel.Image) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(img.Width()))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(img.Height()))
	binary.LittleEndian.PutUint32(hdr[8:], uint32(img.PixelType()))
	h.Write(hdr[:])
	h.Write(img.Data())

	var sum [blake2b.Size256]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// DigestHex returns Digest as a lowercase hex string.
func DigestHex(img *pixel.Image) string {
	sum := Digest(img)
	return hex.EncodeToString(sum[:])
}
