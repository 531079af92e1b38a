package distance

import (
	"testing"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One degree of latitude spans ~111.195 km on a sphere of radius 6371 km.
const degPerKm = 1.0 / 111.1949

func at(lat, lng float64) types.VehiclePosition {
	return types.VehiclePosition{VehicleID: "V-001", Latitude: lat, Longitude: lng}
}

func freezeClock(t *testing.T, frozen time.Time) {
	t.Helper()
	originalNow := now
	now = func() time.Time { return frozen }
	t.Cleanup(func() { now = originalNow })
}

func TestFirstPositionContributesZero(t *testing.T) {
	freezeClock(t, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local))
	a := NewAccumulator()

	added := a.Add(at(4.6097, -74.0817))
	assert.Equal(t, 0.0, added)
	assert.Equal(t, 0.0, a.Total("V-001", "2026-03-10"))

	rec, ok := a.Get("V-001", "2026-03-10")
	require.True(t, ok)
	assert.Equal(t, 4.6097, rec.LastLat)
}

func TestJitterBelowThresholdIsDiscarded(t *testing.T) {
	freezeClock(t, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local))
	a := NewAccumulator()

	start := at(4.6097, -74.0817)
	a.Add(start)

	// 5 meters north: neither the total nor the reference point moves.
	added := a.Add(at(start.Latitude+0.005*degPerKm, start.Longitude))
	assert.Equal(t, 0.0, added)

	rec, _ := a.Get("V-001", "2026-03-10")
	assert.Equal(t, start.Latitude, rec.LastLat)
	assert.Equal(t, 0.0, rec.Km)
}

func TestJitterDoesNotLeakOverManySamples(t *testing.T) {
	freezeClock(t, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local))
	a := NewAccumulator()

	p := at(4.6097, -74.0817)
	a.Add(p)

	// A hundred 5-meter wobbles around the reference point must credit
	// nothing: the reference only advances on a real 10-meter move.
	for i := 0; i < 100; i++ {
		offset := 0.005 * degPerKm
		if i%2 == 1 {
			offset = -offset
		}
		a.Add(at(p.Latitude+offset, p.Longitude))
	}

	assert.Equal(t, 0.0, a.Total("V-001", "2026-03-10"))
}

func TestRealMovementAccumulatesAndAdvancesReference(t *testing.T) {
	freezeClock(t, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.Local))
	a := NewAccumulator()

	start := at(4.6097, -74.0817)
	a.Add(start)

	// 15 meters north adds ~0.015 km and moves the reference point.
	next := at(start.Latitude+0.015*degPerKm, start.Longitude)
	added := a.Add(next)
	assert.InDelta(t, 0.015, added, 0.001)

	rec, _ := a.Get("V-001", "2026-03-10")
	assert.InDelta(t, next.Latitude, rec.LastLat, 1e-9)
	assert.InDelta(t, 0.015, rec.Km, 0.001)

	// Another 15 meters: the total keeps growing additively.
	a.Add(at(next.Latitude+0.015*degPerKm, next.Longitude))
	assert.InDelta(t, 0.030, a.Total("V-001", "2026-03-10"), 0.002)
}

func TestDayBoundaryStartsANewRecord(t *testing.T) {
	day1 := time.Date(2026, time.March, 10, 23, 59, 0, 0, time.Local)
	day2 := time.Date(2026, time.March, 11, 0, 1, 0, 0, time.Local)

	originalNow := now
	defer func() { now = originalNow }()

	a := NewAccumulator()

	now = func() time.Time { return day1 }
	start := at(4.6097, -74.0817)
	a.Add(start)
	a.Add(at(start.Latitude+1*degPerKm, start.Longitude))
	require.InDelta(t, 1.0, a.Total("V-001", "2026-03-10"), 0.01)

	// After midnight the same vehicle starts a fresh record keyed by the
	// new date; the previous day's total is left untouched.
	now = func() time.Time { return day2 }
	added := a.Add(at(start.Latitude+2*degPerKm, start.Longitude))
	assert.Equal(t, 0.0, added, "first position of the new day only sets the reference")

	a.Add(at(start.Latitude+3*degPerKm, start.Longitude))
	assert.InDelta(t, 1.0, a.Total("V-001", "2026-03-11"), 0.01)
	assert.InDelta(t, 1.0, a.Total("V-001", "2026-03-10"), 0.01)
}

func TestTotalForUnknownVehicleIsZero(t *testing.T) {
	a := NewAccumulator()
	assert.Equal(t, 0.0, a.Total("NOPE", "2026-03-10"))
}
