package types

import (
	"time"

	"github.com/daniil11ru/fleetwatch/libs/track"
)

// VehiclePosition — последняя принятая позиция транспортного средства.
// Создаётся при приёме сообщения и далее не изменяется: согласователь
// только заменяет запись целиком.
type VehiclePosition struct {
	VehicleID  string    `json:"id"`
	Name       string    `json:"name"`
	Driver     string    `json:"driver"`
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	SpeedKmh   float64   `json:"speed"`
	Status     string    `json:"status"`
	DeviceTime time.Time `json:"deviceTime"`
	ServerTime time.Time `json:"serverTime"`
}

// FromMessage строит позицию из сообщения канала синхронизации.
// serverTime — отметка ретранслятора, а не часов устройства.
func FromMessage(m *track.Message, serverTime time.Time) VehiclePosition {
	return VehiclePosition{
		VehicleID:  m.ID,
		Name:       m.Name,
		Driver:     m.Driver,
		Latitude:   m.Latitude(),
		Longitude:  m.Longitude(),
		SpeedKmh:   m.Speed,
		Status:     m.Status,
		DeviceTime: m.DeviceTime(),
		ServerTime: serverTime,
	}
}
