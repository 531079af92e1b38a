package consumer

import (
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/distance"
	"github.com/daniil11ru/fleetwatch/cli/tracker/fleet"
	"github.com/daniil11ru/fleetwatch/cli/tracker/observability"
	"github.com/daniil11ru/fleetwatch/cli/tracker/speedcontrol"
	"github.com/daniil11ru/fleetwatch/cli/tracker/storage"
	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
	"github.com/daniil11ru/fleetwatch/libs/relay"
	log "github.com/sirupsen/logrus"
)

// Loop — единственный владелец изменяемого состояния аналитики.
// Сообщения канала синхронизации обрабатываются строго по одному:
// согласование, детект превышений и подсчёт пробега выполняются
// последовательно, без блокировок между собой. Ни одна ошибка
// обработки отдельного сообщения не останавливает цикл.
type Loop struct {
	Fleet       *fleet.Fleet
	Detector    *speedcontrol.Detector
	Accumulator *distance.Accumulator
	Repo        storage.Saver
	Broadcast   func([]types.VehiclePosition)
}

func New(f *fleet.Fleet, d *speedcontrol.Detector, a *distance.Accumulator, repo storage.Saver) *Loop {
	return &Loop{
		Fleet:       f,
		Detector:    d,
		Accumulator: a,
		Repo:        repo,
	}
}

// Run обрабатывает входящий поток до закрытия канала подписки.
func (l *Loop) Run(msgs <-chan relay.Message) {
	for m := range msgs {
		l.Handle(m)
	}
	log.Info("Поток канала синхронизации закрыт, цикл согласования остановлен")
}

// Handle обрабатывает одно входящее сообщение.
func (l *Loop) Handle(m relay.Message) {
	observability.MessagesReceived.Inc()

	pos, accepted, err := l.Fleet.Accept(m.Payload, m.ServerTime)
	if err != nil {
		observability.MalformedDropped.Inc()
		log.WithField("err", err).Debug("Отброшено нечитаемое сообщение")
		return
	}
	if !accepted {
		observability.ReplaysDropped.Inc()
		return
	}
	observability.PositionsAccepted.Inc()

	if alert, fired := l.Detector.Observe(pos, pos.ServerTime); fired {
		observability.AlertsFired.Inc()
		log.Warnf("Превышение скорости: %s, %.0f км/ч при ограничении %.0f", alert.VehicleID, alert.SpeedKmh, alert.LimitKmh)
		l.persist(&storage.AlertRecord{Alert: alert})
	}

	added := l.Accumulator.Add(pos)
	if added > 0 {
		observability.DistanceAccumulatedKm.Add(added)
	}

	dateKey := distance.DateKey(time.Now())
	l.persist(storage.NewTrackRecord(pos, dateKey))
	if rec, ok := l.Accumulator.Get(pos.VehicleID, dateKey); ok {
		l.persist(&storage.DistanceRecord{Record: rec})
	}

	active := l.Fleet.Active()
	observability.ActiveVehicles.Set(float64(len(active)))
	if l.Broadcast != nil {
		l.Broadcast(active)
	}
}

func (l *Loop) persist(rec storage.Record) {
	if l.Repo == nil {
		return
	}
	if err := l.Repo.Save(rec); err != nil {
		log.WithField("err", err).Error("Не удалось передать запись в хранилище")
	}
}
