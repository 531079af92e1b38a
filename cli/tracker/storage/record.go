package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/distance"
	"github.com/daniil11ru/fleetwatch/cli/tracker/speedcontrol"
	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
)

// Виды записей долговременного хранилища.
const (
	KindTrack    = "track"
	KindAlert    = "alert"
	KindDistance = "distance"
)

// Ёмкости ключей: история позиций и журнал сигналов ограничены,
// старейшие элементы вытесняются.
const (
	TrackCap = 2000
	AlertCap = 1000
)

// TrackRecord — точка маршрута ТС за календарный день.
type TrackRecord struct {
	VehicleID string    `json:"-"`
	DateKey   string    `json:"-"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	SpeedKmh  float64   `json:"speedKmh"`
	Time      time.Time `json:"time"`
}

// NewTrackRecord строит точку маршрута из принятой позиции. День
// берётся по локальному времени обработки, как и в подсчёте пробега.
func NewTrackRecord(pos types.VehiclePosition, dateKey string) *TrackRecord {
	return &TrackRecord{
		VehicleID: pos.VehicleID,
		DateKey:   dateKey,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		SpeedKmh:  pos.SpeedKmh,
		Time:      pos.ServerTime,
	}
}

func (r *TrackRecord) Kind() string { return KindTrack }
func (r *TrackRecord) Cap() int     { return TrackCap }

func (r *TrackRecord) Key() string {
	return TrackKey(r.VehicleID, r.DateKey)
}

// TrackKey — ключ истории маршрута ТС за календарный день.
func TrackKey(vehicleID, dateKey string) string {
	return fmt.Sprintf("track:%s:%s", vehicleID, dateKey)
}

func (r *TrackRecord) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

// AlertRecord — сигнал о превышении скорости в журнале хранилища.
type AlertRecord struct {
	speedcontrol.Alert
}

func (r *AlertRecord) Kind() string { return KindAlert }
func (r *AlertRecord) Key() string  { return "alerts" }
func (r *AlertRecord) Cap() int     { return AlertCap }

func (r *AlertRecord) ToBytes() ([]byte, error) {
	return json.Marshal(r.Alert)
}

// DistanceRecord — суточный пробег ТС, одно значение на ключ.
type DistanceRecord struct {
	distance.Record
}

func (r *DistanceRecord) Kind() string { return KindDistance }
func (r *DistanceRecord) Cap() int     { return 0 }

func (r *DistanceRecord) Key() string {
	return fmt.Sprintf("distance:%s:%s", r.VehicleID, r.DateKey)
}

func (r *DistanceRecord) ToBytes() ([]byte, error) {
	return json.Marshal(r.Record)
}
