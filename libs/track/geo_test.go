package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// Богота -> Медельин, примерно 246 км по прямой.
	d := Haversine(4.6097, -74.0817, 6.2442, -75.5812)
	assert.InDelta(t, 246, d, 5)

	// Совпадающие точки.
	assert.Equal(t, 0.0, Haversine(4.6097, -74.0817, 4.6097, -74.0817))

	// Один градус широты на экваторе — около 111 км.
	d = Haversine(0, 0, 1, 0)
	assert.InDelta(t, 111.2, d, 0.5)
}
