package distance

import (
	"sync"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
	"github.com/daniil11ru/fleetwatch/libs/track"
)

var now = time.Now // Подменяется в тестах

// JitterThresholdKm — минимальное смещение, засчитываемое в пробег.
// Меньшие сдвиги — шум GPS: они не накапливаются и не двигают опорную
// точку, пока ТС реально не сместится на 10 метров.
const JitterThresholdKm = 0.01

// Record — суточный пробег одного ТС. Создаётся на первой позиции дня,
// пополняется аддитивно и никогда не уменьшается; на границе суток
// начинается новая запись с новым ключом даты.
type Record struct {
	VehicleID string    `json:"vehicleId"`
	DateKey   string    `json:"date"`
	Km        float64   `json:"km"`
	LastLat   float64   `json:"lastLat"`
	LastLng   float64   `json:"lastLng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DateKey — календарная дата в локальном времени наблюдателя.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Accumulator ведёт суточный пробег по каждому ТС. Ключ дня вычисляется
// в момент обработки позиции, а не по отметке самой позиции: опоздавшая
// позиция засчитывается в день обработки. Это осознанное ограничение.
type Accumulator struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func NewAccumulator() *Accumulator {
	return &Accumulator{records: make(map[string]*Record)}
}

// Add учитывает очередную принятую позицию. Возвращает прибавку к
// пробегу в километрах: ноль для первой позиции дня и для смещений
// в пределах порога дрожания.
func (a *Accumulator) Add(pos types.VehiclePosition) float64 {
	processedAt := now()
	dateKey := DateKey(processedAt)
	key := pos.VehicleID + "|" + dateKey

	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.records[key]
	if !ok {
		a.records[key] = &Record{
			VehicleID: pos.VehicleID,
			DateKey:   dateKey,
			LastLat:   pos.Latitude,
			LastLng:   pos.Longitude,
			UpdatedAt: processedAt,
		}
		return 0
	}

	delta := track.Haversine(rec.LastLat, rec.LastLng, pos.Latitude, pos.Longitude)
	if delta <= JitterThresholdKm {
		return 0
	}

	rec.Km += delta
	rec.LastLat = pos.Latitude
	rec.LastLng = pos.Longitude
	rec.UpdatedAt = processedAt
	return delta
}

// Total возвращает суточный пробег ТС за указанную дату.
func (a *Accumulator) Total(vehicleID, dateKey string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if rec, ok := a.records[vehicleID+"|"+dateKey]; ok {
		return rec.Km
	}
	return 0
}

// Get возвращает копию суточной записи.
func (a *Accumulator) Get(vehicleID, dateKey string) (Record, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if rec, ok := a.records[vehicleID+"|"+dateKey]; ok {
		return *rec, true
	}
	return Record{}, false
}
