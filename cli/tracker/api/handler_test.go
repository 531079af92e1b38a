package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/distance"
	"github.com/daniil11ru/fleetwatch/cli/tracker/fleet"
	"github.com/daniil11ru/fleetwatch/cli/tracker/speedcontrol"
	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrackSource struct {
	payloads [][]byte
	err      error
}

func (f *fakeTrackSource) LoadByKey(string) ([][]byte, error) {
	return f.payloads, f.err
}

func newTestController(tracks *fakeTrackSource) (*Controller, *fleet.Fleet, *speedcontrol.Detector, *distance.Accumulator) {
	f := fleet.New(fleet.DefaultStaleAfter)
	d := speedcontrol.NewDetector(60)
	a := distance.NewAccumulator()
	h := NewHandler(f, d, a, nil)
	if tracks != nil {
		h = NewHandler(f, d, a, tracks)
	}
	return NewController(h, NewHub()), f, d, a
}

func do(ctrl *Controller, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ctrl.router.ServeHTTP(w, req)
	return w
}

func acceptPosition(t *testing.T, f *fleet.Fleet, id string, speed float64, at time.Time) {
	t.Helper()
	payload := fmt.Sprintf(`{"id":%q,"name":"unit","driver":"d","location":[4.6,-74.08],"speed":%f,"status":"active"}`, id, speed)
	_, ok, err := f.Accept([]byte(payload), at)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGetFleetReturnsActiveOnly(t *testing.T) {
	ctrl, f, _, _ := newTestController(nil)

	acceptPosition(t, f, "FRESH", 42, time.Now())
	acceptPosition(t, f, "STALE", 13, time.Now().Add(-2*time.Hour))

	w := do(ctrl, http.MethodGet, "/fleet", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []types.VehiclePosition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "FRESH", got[0].VehicleID)
}

func TestSpeedLimitEndpoint(t *testing.T) {
	ctrl, _, d, _ := newTestController(nil)

	w := do(ctrl, http.MethodPut, "/speed-limit", `{"limit":80}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 80.0, d.Limit())

	w = do(ctrl, http.MethodGet, "/speed-limit", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"limit":80}`, w.Body.String())

	for _, body := range []string{`{"limit":0}`, `{"limit":-5}`, `not json`} {
		w = do(ctrl, http.MethodPut, "/speed-limit", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q must be rejected", body)
	}
	assert.Equal(t, 80.0, d.Limit())
}

func TestAlertsEndpoint(t *testing.T) {
	ctrl, _, d, _ := newTestController(nil)

	_, fired := d.Observe(types.VehiclePosition{VehicleID: "V-001", SpeedKmh: 90}, time.Now())
	require.True(t, fired)

	w := do(ctrl, http.MethodGet, "/alerts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var alerts []speedcontrol.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "V-001", alerts[0].VehicleID)

	w = do(ctrl, http.MethodDelete, "/alerts", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, d.Alerts())
}

func TestDistanceEndpoint(t *testing.T) {
	ctrl, _, _, a := newTestController(nil)

	a.Add(types.VehiclePosition{VehicleID: "V-001", Latitude: 4.6, Longitude: -74.08})
	a.Add(types.VehiclePosition{VehicleID: "V-001", Latitude: 4.7, Longitude: -74.08})

	today := distance.DateKey(time.Now())
	w := do(ctrl, http.MethodGet, "/distance?vehicle_id=V-001&date="+today, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Km float64 `json:"km"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 11.1, resp.Km, 0.2)

	w = do(ctrl, http.MethodGet, "/distance", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(ctrl, http.MethodGet, "/distance?vehicle_id=V-001&date=10.03.2026", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackEndpoint(t *testing.T) {
	source := &fakeTrackSource{payloads: [][]byte{
		[]byte(`{"lat":4.6,"lng":-74.08,"speedKmh":40,"time":"2026-03-10T12:00:00Z"}`),
		[]byte(`broken`),
		[]byte(`{"lat":4.61,"lng":-74.09,"speedKmh":45,"time":"2026-03-10T12:01:00Z"}`),
	}}
	ctrl, _, _, _ := newTestController(source)

	w := do(ctrl, http.MethodGet, "/track?vehicle_id=V-001&date=2026-03-10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Points []map[string]interface{} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Points, 2, "a corrupted point is skipped, not fatal")

	w = do(ctrl, http.MethodGet, "/track", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackEndpointWithoutSource(t *testing.T) {
	f := fleet.New(fleet.DefaultStaleAfter)
	h := NewHandler(f, speedcontrol.NewDetector(60), distance.NewAccumulator(), nil)
	ctrl := NewController(h, NewHub())

	w := do(ctrl, http.MethodGet, "/track?vehicle_id=V-001", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHealthz(t *testing.T) {
	ctrl, _, _, _ := newTestController(nil)
	w := do(ctrl, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
