package speedcontrol

import (
	"fmt"
	"sync"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
)

const (
	// DefaultDedupWindow — минимальный интервал между двумя сигналами
	// по одному ТС. Непрерывное превышение не порождает сигнал на
	// каждый тик позиции.
	DefaultDedupWindow = 30 * time.Second

	// DefaultLogCap — ёмкость журнала сигналов, старейшие вытесняются.
	DefaultLogCap = 1000
)

// Alert — зафиксированное превышение скорости. Неизменяем после
// создания: смена ограничения задним числом сигналы не переписывает.
type Alert struct {
	ID          string    `json:"id"`
	VehicleID   string    `json:"vehicleId"`
	VehicleName string    `json:"vehicleName"`
	Driver      string    `json:"driver"`
	SpeedKmh    float64   `json:"speed"`
	LimitKmh    float64   `json:"limit"`
	ExcessKmh   float64   `json:"excess"`
	FiredAt     time.Time `json:"firedAt"`
}

// Detector следит за превышениями скорости и ведёт ограниченный журнал
// сигналов, упорядоченный от новых к старым.
type Detector struct {
	mu     sync.RWMutex
	limit  float64
	alerts []Alert
	window time.Duration
	cap    int
}

func NewDetector(limitKmh float64) *Detector {
	return &Detector{
		limit:  limitKmh,
		window: DefaultDedupWindow,
		cap:    DefaultLogCap,
	}
}

// Limit возвращает действующее ограничение скорости.
func (d *Detector) Limit() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.limit
}

// SetLimit меняет действующее ограничение. Уже созданные сигналы
// сохраняют ограничение, действовавшее в момент срабатывания.
func (d *Detector) SetLimit(limitKmh float64) {
	d.mu.Lock()
	d.limit = limitKmh
	d.mu.Unlock()
}

// Observe оценивает позицию по действующему ограничению. Возвращает
// новый сигнал, если скорость выше ограничения и по этому ТС не было
// сигнала в пределах окна дедупликации. История одного ТС никогда не
// подавляет сигналы другого.
func (d *Detector) Observe(pos types.VehiclePosition, at time.Time) (Alert, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pos.SpeedKmh <= d.limit {
		return Alert{}, false
	}

	for _, a := range d.alerts {
		if at.Sub(a.FiredAt) >= d.window {
			// Журнал упорядочен от новых к старым, дальше только старше.
			break
		}
		if a.VehicleID == pos.VehicleID {
			return Alert{}, false
		}
	}

	alert := Alert{
		ID:          fmt.Sprintf("%s-%d", pos.VehicleID, at.UnixMilli()),
		VehicleID:   pos.VehicleID,
		VehicleName: pos.Name,
		Driver:      pos.Driver,
		SpeedKmh:    pos.SpeedKmh,
		LimitKmh:    d.limit,
		ExcessKmh:   pos.SpeedKmh - d.limit,
		FiredAt:     at,
	}

	d.alerts = append([]Alert{alert}, d.alerts...)
	if len(d.alerts) > d.cap {
		d.alerts = d.alerts[:d.cap]
	}

	return alert, true
}

// Alerts возвращает копию журнала, от новых к старым.
func (d *Detector) Alerts() []Alert {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Alert, len(d.alerts))
	copy(out, d.alerts)
	return out
}

// Clear очищает журнал сигналов.
func (d *Detector) Clear() {
	d.mu.Lock()
	d.alerts = nil
	d.mu.Unlock()
}
