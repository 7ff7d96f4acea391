// Package writer provides the file writer plugins shipped with framewright
// and a registry preloaded with them.
//
// Plugins:
//   - SequencePlugin: numbered PNG, TIFF or lossless WebP image sequences
//     (.png, .tif, .webp)
//   - RawZPlugin: zstd-compressed raw frames and PCM in one stream (.rawz)
//   - RTPPlugin: raw frames packetized as RTP into a length-prefixed dump (.rtpdump)
//   - WAVPlugin: PCM audio (.wav)
//   - DigestPlugin: BLAKE2b manifest of every frame and audio block (.b2sum)
//   - SamplePlugin: media.Sample delivery to live WebRTC tracks
package writer

import "github.com/opd-ai/framewright/mediaio"

// Default returns a registry holding every file plugin of this package.
func Default() *mediaio.Registry {
	return mediaio.NewRegistry(
		NewPNGPlugin(),
		NewTIFFPlugin(),
		NewWebPPlugin(),
		NewRawZPlugin(),
		NewRTPPlugin(RTPConfig{}),
		NewWAVPlugin(),
		NewDigestPlugin(),
	)
}
