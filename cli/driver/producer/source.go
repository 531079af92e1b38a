package producer

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied — доступ к датчику координат запрещён.
// Ошибка терминальная: цикл публикации не запускается.
var ErrPermissionDenied = errors.New("доступ к источнику координат запрещён")

// Sample — одно измерение датчика координат.
type Sample struct {
	Latitude  float64
	Longitude float64
	SpeedKmh  float64
	At        time.Time
}

// Source — источник координат транспортного средства.
// Watch возвращает канал измерений; канал закрывается при отмене контекста.
type Source interface {
	Watch(ctx context.Context) (<-chan Sample, error)
}
