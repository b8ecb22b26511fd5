package survey

import "errors"

var (
	// ErrMalformedWindow is returned for a transect window whose bounds do not
	// parse as HH:MM:SS.
	ErrMalformedWindow = errors.New("malformed transect window")

	// ErrEmptyWindow is returned when no aggregated sample falls inside a window.
	ErrEmptyWindow = errors.New("no samples in transect window")

	// ErrNoFix is returned when a transect has no valid GPS or navigation-filter
	// fix to seed from. The track is still produced without geographic columns.
	ErrNoFix = errors.New("no absolute fix to seed track")
)
