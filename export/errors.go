package export

import "errors"

// Sentinel errors for export jobs.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrExportInProgress indicates Save was called while another export
	// of the same Exporter was running.
	ErrExportInProgress = errors.New("an export is already running")

	// ErrWriterUnavailable indicates no writer plugin accepts the resolved
	// output path, or the plugin failed to open it.
	ErrWriterUnavailable = errors.New("cannot open writer plugin")

	// ErrDestinationCollision indicates the extension forced by the codec
	// profile names a file that already exists.
	ErrDestinationCollision = errors.New("destination already exists")

	// ErrSelfOverwrite indicates the target is the file being played.
	ErrSelfOverwrite = errors.New("saving over same file being played")

	// ErrNothingToExport indicates the timeline has no stream the chosen
	// writer can store.
	ErrNothingToExport = errors.New("nothing to export")

	// ErrJobPanicked indicates the export loop panicked. The panic value is
	// part of the wrapped message.
	ErrJobPanicked = errors.New("export job panicked")

	// ErrNoPlayer indicates an Exporter without a Player.
	ErrNoPlayer = errors.New("no timeline player")
)
