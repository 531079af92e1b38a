package track

import (
	"encoding/json"
	"fmt"
	"time"
)

// Статусы транспортного средства, вычисляются на стороне продюсера.
const (
	StatusActive   = "active"
	StatusSpeeding = "speeding"
	StatusStopped  = "stopped"
)

// Message представляет собой телематическое сообщение, передаваемое
// через канал синхронизации: продюсер -> ретранслятор -> потребитель.
// Поле LastUpdate заполняется по часам устройства и не используется
// для упорядочивания, авторитетна только серверная отметка времени.
type Message struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Driver     string     `json:"driver"`
	Location   [2]float64 `json:"location"`
	Speed      float64    `json:"speed"`
	Status     string     `json:"status"`
	LastUpdate int64      `json:"lastUpdate"`
}

func (m *Message) Latitude() float64 {
	return m.Location[0]
}

func (m *Message) Longitude() float64 {
	return m.Location[1]
}

// Decode разбирает JSON-представление сообщения и проверяет обязательные поля.
func (m *Message) Decode(content []byte) error {
	if err := json.Unmarshal(content, m); err != nil {
		return fmt.Errorf("не удалось разобрать сообщение: %v", err)
	}

	if m.ID == "" {
		return fmt.Errorf("в сообщении отсутствует идентификатор ТС")
	}

	if m.Location[0] < -90 || m.Location[0] > 90 {
		return fmt.Errorf("некорректная широта: %f", m.Location[0])
	}
	if m.Location[1] < -180 || m.Location[1] > 180 {
		return fmt.Errorf("некорректная долгота: %f", m.Location[1])
	}

	if m.Speed < 0 {
		return fmt.Errorf("некорректная скорость: %f", m.Speed)
	}

	switch m.Status {
	case StatusActive, StatusSpeeding, StatusStopped, "":
	default:
		return fmt.Errorf("неизвестный статус: %s", m.Status)
	}

	return nil
}

// Encode сериализует сообщение в JSON.
func (m *Message) Encode() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать сообщение: %v", err)
	}
	return b, nil
}

// ToBytes реализует контракт хранилищ.
func (m *Message) ToBytes() ([]byte, error) {
	return m.Encode()
}

// DeriveStatus вычисляет статус по текущей скорости и действующему ограничению.
func DeriveStatus(speedKmh, limitKmh float64) string {
	switch {
	case speedKmh <= 0:
		return StatusStopped
	case limitKmh > 0 && speedKmh > limitKmh:
		return StatusSpeeding
	default:
		return StatusActive
	}
}

// DeviceTime возвращает отметку часов устройства.
func (m *Message) DeviceTime() time.Time {
	return time.UnixMilli(m.LastUpdate)
}
