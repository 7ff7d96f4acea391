// Package export writes a timeline range to a movie, an image sequence or
// an audio file.
//
// An Exporter drives a cooperative, single-threaded loop over the player's
// in/out range. Each iteration it polls the progress report for
// cancellation, writes the audio not yet written (one second per fetch,
// trimmed to the range's exact sample count), renders and reads back the
// frame, composites the annotation overlay, converts it to the pixel type
// the writer negotiated, resamples it to the requested resolution and
// hands it to the writer.
//
// The player, viewport, I/O cache, sync lock and recent-files list are
// collaborators passed in by the caller. Whatever the job changes on them
// is restored when it ends, whether it succeeded, was cancelled, failed or
// panicked.
//
// Example:
//
//	e := &export.Exporter{
//		Player:   player,
//		Viewport: viewport,
//		Registry: writer.Default(),
//		Cache:    ioCache,
//	}
//	opts := export.DefaultOptions()
//	opts.Resolution = export.HalfSize
//	res, err := e.Save(ctx, "/renders/shot.0001.png", opts)
package export
