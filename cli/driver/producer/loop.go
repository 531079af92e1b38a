package producer

import (
	"context"
	"sync"
	"time"

	"github.com/daniil11ru/fleetwatch/libs/track"
	log "github.com/sirupsen/logrus"
)

// DefaultInterval — период повторной публикации последнего измерения.
const DefaultInterval = time.Second

// Publisher — выход цикла публикации, реализуется каналом синхронизации.
type Publisher interface {
	Publish(payload []byte) error
}

// Identity — неизменные атрибуты ТС, добавляемые к каждому сообщению.
type Identity struct {
	ID     string
	Name   string
	Driver string
}

// Loop публикует последнее известное положение ТС с фиксированным периодом,
// независимо от темпа обновлений датчика. Пока измерений не было,
// публикация не производится.
type Loop struct {
	Source        Source
	Publisher     Publisher
	Vehicle       Identity
	SpeedLimitKmh float64
	Interval      time.Duration

	mu       sync.Mutex
	latest   Sample
	hasFix   bool
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Start запускает наблюдение за датчиком и периодическую публикацию.
// Ошибка Watch (в том числе ErrPermissionDenied) терминальна.
func (l *Loop) Start(ctx context.Context) error {
	if l.Interval <= 0 {
		l.Interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	samples, err := l.Source.Watch(ctx)
	if err != nil {
		cancel()
		return err
	}

	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, samples)
	return nil
}

func (l *Loop) run(ctx context.Context, samples <-chan Sample) {
	defer close(l.done)

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case s, ok := <-samples:
			if !ok {
				return
			}
			l.mu.Lock()
			l.latest = s
			l.hasFix = true
			l.mu.Unlock()
		case <-ticker.C:
			l.publishLatest()
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) publishLatest() {
	l.mu.Lock()
	s, ok := l.latest, l.hasFix
	l.mu.Unlock()
	if !ok {
		return
	}

	msg := track.Message{
		ID:         l.Vehicle.ID,
		Name:       l.Vehicle.Name,
		Driver:     l.Vehicle.Driver,
		Location:   [2]float64{s.Latitude, s.Longitude},
		Speed:      s.SpeedKmh,
		Status:     track.DeriveStatus(s.SpeedKmh, l.SpeedLimitKmh),
		LastUpdate: s.At.UnixMilli(),
	}

	payload, err := msg.ToBytes()
	if err != nil {
		log.WithField("err", err).Error("Не удалось сериализовать положение ТС")
		return
	}

	// Публикация best-effort: транспортная ошибка не останавливает цикл.
	if err := l.Publisher.Publish(payload); err != nil {
		log.WithField("err", err).Warn("Не удалось опубликовать положение ТС")
	}
}

// Stop останавливает цикл и наблюдение за датчиком. Повторные вызовы безопасны.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		if l.cancel == nil {
			return
		}
		l.cancel()
		<-l.done
	})
}
