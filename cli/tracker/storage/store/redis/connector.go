package redis

/*
Плагин для работы с Redis. Помимо записи служит источником чтения
истории маршрутов для API.

Раздел настроек, которые должны отвечать в конфиге для подключения хранилища:

host = "localhost"
port = "6379"
password = ""
database = "0"
*/

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

var ctx = context.Background()

type Connector struct {
	connection *redis.Client
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	db := 0
	if dbStr := c.config["database"]; dbStr != "" {
		var err error
		if db, err = strconv.Atoi(dbStr); err != nil {
			return fmt.Errorf("некорректный номер базы Redis: %v", err)
		}
	}

	c.connection = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", c.config["host"], c.config["port"]),
		Password: c.config["password"],
		DB:       db,
	})

	if err := c.connection.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis недоступен: %v", err)
	}
	return nil
}

// Save сохраняет запись. Последовательности (история позиций, журнал
// сигналов) кладутся в список с усечением до ёмкости ключа, одиночные
// значения (пробег) перезаписываются.
func (c *Connector) Save(rec store.Record) error {
	if rec == nil {
		return fmt.Errorf("некорректная ссылка на запись")
	}

	data, err := rec.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %v", err)
	}

	if rec.Cap() > 0 {
		pipe := c.connection.TxPipeline()
		pipe.LPush(ctx, rec.Key(), data)
		pipe.LTrim(ctx, rec.Key(), 0, int64(rec.Cap())-1)
		if _, err = pipe.Exec(ctx); err != nil {
			return fmt.Errorf("не удалось добавить запись в список %s: %v", rec.Key(), err)
		}
		return nil
	}

	if err = c.connection.Set(ctx, rec.Key(), data, 0).Err(); err != nil {
		return fmt.Errorf("не удалось записать значение %s: %v", rec.Key(), err)
	}
	return nil
}

// LoadByKey возвращает элементы списка в хронологическом порядке.
func (c *Connector) LoadByKey(key string) ([][]byte, error) {
	items, err := c.connection.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать список %s: %v", key, err)
	}

	// LPUSH хранит новые элементы в голове, разворачиваем к хронологии.
	out := make([][]byte, len(items))
	for i, item := range items {
		out[len(items)-1-i] = []byte(item)
	}
	return out, nil
}

// PruneTracks удаляет ключи истории маршрутов с датой строго меньше
// cutoffDate (формат 2006-01-02). Ключи даты сравниваются лексикографически.
func (c *Connector) PruneTracks(cutoffDate string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.connection.Scan(ctx, cursor, "track:*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("ошибка обхода ключей истории: %v", err)
		}
		for _, key := range keys {
			parts := strings.Split(key, ":")
			if len(parts) < 3 {
				continue
			}
			if parts[len(parts)-1] < cutoffDate {
				if err := c.connection.Del(ctx, key).Err(); err != nil {
					log.WithField("err", err).Warnf("Не удалось удалить ключ %s", key)
					continue
				}
				removed++
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return removed, nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
