package stage

import "errors"

// Errors reported by the export pipeline. Precondition errors are returned
// before any rasterization begins; everything recoverable (perspective
// capture, overlay decode, persistence, analytics) is absorbed internally
// with a warning so that at most one error reaches the caller per export.
var (
	// ErrNoTarget indicates the export was invoked without a scene or with a
	// scene that has no subject image ("no image uploaded yet").
	ErrNoTarget = errors.New("stage: no export target")

	// ErrNoSurface indicates the live rendering surface handle is unbound.
	ErrNoSurface = errors.New("stage: rendering surface not bound")

	// ErrInvalidAspect indicates an unknown aspect-ratio preset name.
	ErrInvalidAspect = errors.New("stage: invalid aspect ratio preset")

	// ErrExportInFlight indicates another export is already running on the
	// same Stage. Exports are serialized, never queued.
	ErrExportInFlight = errors.New("stage: export already in flight")

	// ErrEncodeFailed indicates the final bitmap produced degenerate output.
	ErrEncodeFailed = errors.New("stage: image encoding produced no data")

	// ErrClipboardUnsupported indicates the platform has no clipboard the
	// library can write to.
	ErrClipboardUnsupported = errors.New("stage: clipboard not supported on this platform")

	// ErrBackendUnavailable indicates no registered backend accepted a layer.
	ErrBackendUnavailable = errors.New("stage: no backend can render layer")
)
