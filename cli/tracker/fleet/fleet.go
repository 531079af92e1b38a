package fleet

import (
	"sort"
	"sync"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
	"github.com/daniil11ru/fleetwatch/libs/track"
)

var now = time.Now // Подменяется в тестах

// DefaultStaleAfter — окно, после которого позиция исключается из
// активного парка. Запись при этом не удаляется: она нужна для
// непрерывности подсчёта пробега и аудита.
const DefaultStaleAfter = time.Hour

// Fleet — авторитетное состояние парка: отображение идентификатора ТС
// на последнюю принятую позицию. Инвариант: серверная отметка времени
// хранимой записи — максимум по всем когда-либо принятым сообщениям
// этого ТС, поэтому повторы и опоздавшие сообщения состояние не откатят.
type Fleet struct {
	mu         sync.RWMutex
	vehicles   map[string]types.VehiclePosition
	staleAfter time.Duration
}

func New(staleAfter time.Duration) *Fleet {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Fleet{
		vehicles:   make(map[string]types.VehiclePosition),
		staleAfter: staleAfter,
	}
}

// Accept разбирает входящее сообщение и заменяет хранимую запись, если
// серверная отметка строго новее хранимой. Возвращает принятую позицию
// и признак того, что состояние изменилось. Нечитаемое сообщение
// возвращает ошибку и не меняет состояние.
func (f *Fleet) Accept(payload []byte, serverTime time.Time) (types.VehiclePosition, bool, error) {
	msg := track.Message{}
	if err := msg.Decode(payload); err != nil {
		return types.VehiclePosition{}, false, err
	}

	pos := types.FromMessage(&msg, serverTime)

	f.mu.Lock()
	defer f.mu.Unlock()

	if stored, ok := f.vehicles[pos.VehicleID]; ok && !pos.ServerTime.After(stored.ServerTime) {
		// Повтор или опоздавшее сообщение после переподключения.
		return pos, false, nil
	}

	f.vehicles[pos.VehicleID] = pos
	return pos, true, nil
}

// ActiveAt возвращает срез парка без устаревших позиций. Переход в
// устаревшее состояние — чистая функция от текущего времени,
// вычисляется при чтении, без таймеров.
func (f *Fleet) ActiveAt(at time.Time) []types.VehiclePosition {
	f.mu.RLock()
	defer f.mu.RUnlock()

	active := make([]types.VehiclePosition, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		if at.Sub(v.ServerTime) < f.staleAfter {
			active = append(active, v)
		}
	}
	sortByID(active)
	return active
}

// Active — активный парк на текущий момент.
func (f *Fleet) Active() []types.VehiclePosition {
	return f.ActiveAt(now())
}

// Snapshot возвращает копию всего состояния, включая устаревшие записи.
func (f *Fleet) Snapshot() []types.VehiclePosition {
	f.mu.RLock()
	defer f.mu.RUnlock()

	all := make([]types.VehiclePosition, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		all = append(all, v)
	}
	sortByID(all)
	return all
}

// Latest возвращает последнюю принятую позицию ТС, в том числе устаревшую.
func (f *Fleet) Latest(vehicleID string) (types.VehiclePosition, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.vehicles[vehicleID]
	return v, ok
}

func sortByID(positions []types.VehiclePosition) {
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].VehicleID < positions[j].VehicleID
	})
}
