// Package units resolves the time zone surveys are normalised to.
package units

import (
	"fmt"
	"time"
)

// DefaultTimezone is the zone field crews record transect windows in.
const DefaultTimezone = "America/Los_Angeles"

// IsTimezoneValid reports whether tz loads from the tz database.
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// LoadTimezone loads tz, treating "" as DefaultTimezone.
func LoadTimezone(tz string) (*time.Location, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}
	return loc, nil
}

// SecondsOfDay returns seconds since local midnight of t.
func SecondsOfDay(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}
