// Package transect slices an aggregated sample series into time-of-day
// windows.
package transect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/transects/internal/survey"
)

const secondsPerDay = 24 * 60 * 60

// Bounds is an unparsed window as supplied by the caller.
type Bounds struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// ParseBounds splits "HH:MM:SS-HH:MM:SS". Validation of each side is left to
// ParseWindow so a bad window is reported against its position in the list.
func ParseBounds(s string) Bounds {
	start, end, _ := strings.Cut(strings.TrimSpace(s), "-")
	return Bounds{Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}
}

func (b Bounds) String() string {
	return b.Start + "-" + b.End
}

// Window is a parsed transect window. Start and End are seconds since local
// midnight and both are inclusive.
type Window struct {
	Index  int // 1-based position in the caller's list
	Start  int
	End    int
	Bounds Bounds
}

func (w Window) String() string {
	return fmt.Sprintf("T%d %s", w.Index, w.Bounds)
}

// Contains reports whether a time of day (seconds since midnight) falls
// inside the window.
func (w Window) Contains(tod int) bool {
	return tod >= w.Start && tod <= w.End
}

// DefaultWindow covers the whole day.
func DefaultWindow() Window {
	return Window{
		Index:  1,
		Start:  0,
		End:    secondsPerDay - 1,
		Bounds: Bounds{Start: "00:00:00", End: "23:59:59"},
	}
}

// ParseClock parses HH:MM:SS into seconds since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q is not HH:MM:SS", survey.ErrMalformedWindow, s)
	}
	limits := [3]int{24, 60, 60}
	var v [3]int
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 || !allDigits(p) {
			return 0, fmt.Errorf("%w: %q is not HH:MM:SS", survey.ErrMalformedWindow, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not HH:MM:SS", survey.ErrMalformedWindow, s)
		}
		if n >= limits[i] {
			return 0, fmt.Errorf("%w: %q out of range", survey.ErrMalformedWindow, s)
		}
		v[i] = n
	}
	return v[0]*3600 + v[1]*60 + v[2], nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatClock renders seconds since midnight as HH:MM:SS.
func FormatClock(tod int) string {
	return fmt.Sprintf("%02d:%02d:%02d", tod/3600, tod%3600/60, tod%60)
}

// ParseWindow parses the window at 1-based position index.
func ParseWindow(index int, b Bounds) (Window, error) {
	start, err := ParseClock(b.Start)
	if err != nil {
		return Window{}, fmt.Errorf("transect %d start: %w", index, err)
	}
	end, err := ParseClock(b.End)
	if err != nil {
		return Window{}, fmt.Errorf("transect %d end: %w", index, err)
	}
	return Window{Index: index, Start: start, End: end, Bounds: b}, nil
}

// WindowError is a malformed window at its 1-based position in the caller's
// list.
type WindowError struct {
	Index  int
	Bounds Bounds
	Err    error
}

func (e *WindowError) Error() string { return e.Err.Error() }

func (e *WindowError) Unwrap() error { return e.Err }

// ParseWindows parses every entry. Malformed entries are returned as
// *WindowError and omitted from the windows; the remaining windows keep their
// original positions as Index. With no input the default full-day window is
// returned.
func ParseWindows(bs []Bounds) ([]Window, []error) {
	if len(bs) == 0 {
		return []Window{DefaultWindow()}, nil
	}
	var (
		windows []Window
		errs    []error
	)
	for i, b := range bs {
		w, err := ParseWindow(i+1, b)
		if err != nil {
			errs = append(errs, &WindowError{Index: i + 1, Bounds: b, Err: err})
			continue
		}
		windows = append(windows, w)
	}
	return windows, errs
}

// Slice returns a copy of the samples whose time of day falls inside w, in
// their original order.
func Slice(samples []survey.Sample, w Window) []survey.Sample {
	var out []survey.Sample
	for _, s := range samples {
		if w.Contains(s.TimeOfDay()) {
			out = append(out, s)
		}
	}
	return out
}
