// Package framewright implements the pixel conversion, compositing and
// resampling core of a media review tool, together with the frame-accurate
// export loop that renders a timeline and writes it to movies, image
// sequences or audio files.
//
// The module is organized into focused packages:
//
//   - pixel: pixel types, image buffers, channel and format conversion, and
//     pixel sampling including planar YUV
//   - imageops: annotation compositing, bilinear resampling, vertical flips
//     and pixel digests
//   - otime: rational frame times and time ranges
//   - audio: PCM chunks, resampling and Ogg/Opus decoding
//   - mediaio: the writer plugin contract and extension registry
//   - writer: PNG, TIFF, WebP, RawZ, RTP dump, WAV and digest plugins
//   - export: the export orchestrator
//   - cache: a byte-budgeted frame cache
//   - netsync: Noise-encrypted sync broadcasting to viewer peers
//   - synth: a synthetic player and viewport
//
// # Getting Started
//
// Export the in/out range of a player through the default plugins:
//
//	e := &export.Exporter{
//	    Player:   player,
//	    Viewport: viewport,
//	    Registry: writer.Default(),
//	    Cache:    cache.New(cache.DefaultMax),
//	}
//	opts := export.DefaultOptions()
//	opts.Resolution = export.HalfSize
//	res, err := e.Save(ctx, "review.0001.png", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.FramesWritten, "frames written to", res.Path)
//
// The framewright command in cmd/framewright runs the same export against
// a synthetic timeline.
package framewright
