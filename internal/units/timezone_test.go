package units

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTimezoneValid(t *testing.T) {
	assert.True(t, IsTimezoneValid("UTC"))
	assert.True(t, IsTimezoneValid(DefaultTimezone))
	assert.False(t, IsTimezoneValid(""))
	assert.False(t, IsTimezoneValid("Mars/Olympus_Mons"))
}

func TestLoadTimezone(t *testing.T) {
	loc, err := LoadTimezone("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, loc.String())

	_, err = LoadTimezone("Not/AZone")
	assert.Error(t, err)
}

func TestSecondsOfDay(t *testing.T) {
	assert.Equal(t, 0, SecondsOfDay(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 86399, SecondsOfDay(time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC)))
}
