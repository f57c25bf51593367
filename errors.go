package cadview

import "errors"

// Sentinel errors. Returned errors wrap one or more of them.
var (
	// ErrNotInitialized is returned by model, viewport and render
	// operations while the engine is not ready.
	ErrNotInitialized = errors.New("cadview: engine not initialized")

	// ErrLoad is returned when a drawing cannot be loaded.
	ErrLoad = errors.New("cadview: load failed")

	// ErrInvalidOperation is returned for invalid arguments and unknown
	// handles or surfaces.
	ErrInvalidOperation = errors.New("cadview: invalid operation")

	// ErrRender is returned when a frame cannot be produced.
	ErrRender = errors.New("cadview: render failed")

	// ErrLicense is returned by Initialize when the license is rejected.
	ErrLicense = errors.New("cadview: license rejected")

	// ErrUnknownModel is wrapped together with ErrInvalidOperation for
	// handles that were never loaded or have been unloaded.
	ErrUnknownModel = errors.New("cadview: unknown model")

	// ErrUnknownSurface is wrapped for surface ids that are not open.
	ErrUnknownSurface = errors.New("cadview: unknown surface")
)
