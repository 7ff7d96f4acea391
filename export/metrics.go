package export

import "sync/atomic"

// Process-wide export counters.
var (
	framesRendered      atomic.Uint64 // frames read back from the viewport
	framesWritten       atomic.Uint64 // frames handed to a writer
	audioSamplesWritten atomic.Uint64 // audio samples per channel handed to a writer
	jobsCompleted       atomic.Uint64
	jobsCancelled       atomic.Uint64
	jobsFailed          atomic.Uint64
)

// ResetCounters resets all metrics to zero.
func ResetCounters() {
	framesRendered.Store(0)
	framesWritten.Store(0)
	audioSamplesWritten.Store(0)
	jobsCompleted.Store(0)
	jobsCancelled.Store(0)
	jobsFailed.Store(0)
}

// GetCounters returns a snapshot of current metrics.
func GetCounters() map[string]uint64 {
	return map[string]uint64{
		"frames_rendered":       framesRendered.Load(),
		"frames_written":        framesWritten.Load(),
		"audio_samples_written": audioSamplesWritten.Load(),
		"jobs_completed":        jobsCompleted.Load(),
		"jobs_cancelled":        jobsCancelled.Load(),
		"jobs_failed":           jobsFailed.Load(),
	}
}

func incFramesRendered() { framesRendered.Add(1) }
func incFramesWritten()  { framesWritten.Add(1) }
func incAudioSamples(n int) {
	if n > 0 {
		audioSamplesWritten.Add(uint64(n))
	}
}
