package survey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloat(t *testing.T) {
	var null Float
	assert.False(t, null.Valid)
	assert.True(t, math.IsNaN(null.OrNaN()))
	assert.Equal(t, "", null.Format(3))
	assert.Equal(t, "null", null.String())

	zero := Some(0)
	assert.True(t, zero.Valid, "a reading of zero is not null")
	assert.Equal(t, "0.000", zero.Format(3))

	assert.False(t, Finite(math.NaN()).Valid)
	assert.False(t, Finite(math.Inf(-1)).Valid)
	assert.True(t, Finite(1.5).IsFinite())

	assert.Equal(t, Some(-2.5), Some(2.5).Neg())
	assert.Equal(t, Float{}, null.Neg())

	v, ok := Some(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	assert.Equal(t, "", Some(math.NaN()).Format(2))
}
