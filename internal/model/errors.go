package model

import "errors"

var (
	// ErrZoneNotFound indicates the requested zone id is not in the store.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrMissingBaseSize indicates a transform was requested before the
	// zone's base size was cached. The zone is skipped, siblings continue.
	ErrMissingBaseSize = errors.New("zone base size not cached")

	// ErrMissingAnchor indicates a transform was requested before an anchor
	// point was set for the zone.
	ErrMissingAnchor = errors.New("zone anchor not set")

	// ErrDegenerateBounds indicates a zero-area rectangle reached a boundary
	// that requires a well-formed one.
	ErrDegenerateBounds = errors.New("degenerate bounds")

	// ErrRasterUnavailable indicates the zone's raster could not be decoded.
	// Pixel-level operations degrade to rectangle-only hit testing.
	ErrRasterUnavailable = errors.New("raster unavailable")

	// ErrNoPreview indicates a commit was requested for a zone with no live
	// preview transform.
	ErrNoPreview = errors.New("no preview transform to commit")
)
