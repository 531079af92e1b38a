package storage

import (
	"errors"

	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store"
	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store/mysql"
	natsstore "github.com/daniil11ru/fleetwatch/cli/tracker/storage/store/nats"
	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store/postgresql"
	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store/rabbitmq"
	redisstore "github.com/daniil11ru/fleetwatch/cli/tracker/storage/store/redis"
	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store/tarantool_queue"
)

var ErrInvalidStorage = errors.New("в конфигурации не задано ни одного хранилища")
var ErrUnknownStorage = errors.New("хранилище не поддерживается")

// Record — единица сохранения, контракт описан в пакете store.
type Record = store.Record

type Store interface {
	Connector
	Saver
}

// Saver — интерфейс сохранения записей во внешнее хранилище
type Saver interface {
	// Save сохраняет запись в хранилище
	Save(Record) error
}

// TrackSource — источник чтения истории маршрутов для API.
// Реализуется хранилищем Redis.
type TrackSource interface {
	LoadByKey(key string) ([][]byte, error)
}

// Pruner — хранилище, умеющее удалять устаревшие ключи истории.
type Pruner interface {
	PruneTracks(cutoffDate string) (int, error)
}

// Connector — интерфейс подключения внешних хранилищ
type Connector interface {
	// Init устанавливает соединение с хранилищем
	Init(map[string]string) error

	// Close закрывает соединение с хранилищем
	Close() error
}

// Repository — набор выходных хранилищ
type Repository struct {
	storages []Saver
	tracks   TrackSource
	pruner   Pruner
}

// AddStore добавляет хранилище для сохранения данных
func (r *Repository) AddStore(s Saver) {
	r.storages = append(r.storages, s)
}

// Save сохраняет запись во все установленные хранилища
func (r *Repository) Save(rec Record) error {
	for _, store := range r.storages {
		if err := store.Save(rec); err != nil {
			return err
		}
	}
	return nil
}

// LoadStorages загружает хранилища из структуры конфига
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	if len(storages) == 0 {
		return ErrInvalidStorage
	}

	var db Store
	for store, params := range storages {
		switch store {
		case "redis":
			db = &redisstore.Connector{}
		case "postgresql":
			db = &postgresql.Connector{}
		case "mysql":
			db = &mysql.Connector{}
		case "rabbitmq":
			db = &rabbitmq.Connector{}
		case "tarantool_queue":
			db = &tarantool_queue.Connector{}
		case "nats":
			db = &natsstore.Connector{}
		default:
			return ErrUnknownStorage
		}

		if err := db.Init(params); err != nil {
			return err
		}

		r.AddStore(db)

		// Redis кроме записи отдаёт чтение истории и очистку старых треков.
		if ts, ok := db.(TrackSource); ok {
			r.tracks = ts
		}
		if p, ok := db.(Pruner); ok {
			r.pruner = p
		}
	}
	return nil
}

// Tracks возвращает источник чтения истории, если такое хранилище настроено.
func (r *Repository) Tracks() TrackSource {
	return r.tracks
}

// Pruner возвращает хранилище с поддержкой очистки истории, если оно настроено.
func (r *Repository) Pruner() Pruner {
	return r.pruner
}

// NewRepository создает пустой репозиторий
func NewRepository() *Repository {
	return &Repository{}
}
