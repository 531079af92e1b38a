package postgresql

/*
Настройки, которые могут (а не которые – должны) быть в конфиге для подключения хранилища:

host = "localhost"
port = "5432"
user = "postgres"
password = "postgres"
database = "fleetwatch"
table = "fleet_event"
sslmode = "disable"
*/

import (
	"database/sql"
	"fmt"

	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

type Connector struct {
	connection *sql.DB
	config     map[string]string
	table      string
}

func (c *Connector) Init(cfg map[string]string) error {
	var (
		err error
	)
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg
	connStr := fmt.Sprintf("dbname=%s host=%s port=%s user=%s password=%s sslmode=%s",
		c.config["database"], c.config["host"], c.config["port"], c.config["user"], c.config["password"], c.config["sslmode"])
	if c.connection, err = sql.Open("postgres", connStr); err != nil {
		return fmt.Errorf("ошибка подключения к PostgreSQL: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("PostgreSQL недоступен: %v", err)
	}

	c.table = c.config["table"]
	if c.table == "" {
		log.Warn("Ключ 'table' не найден в конфигурации хранилища. Используется значение по умолчанию 'fleet_event'.")
		c.table = "fleet_event"
	}

	createQuery := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id BIGSERIAL PRIMARY KEY, kind TEXT NOT NULL, record_key TEXT NOT NULL, payload JSONB NOT NULL, created_at TIMESTAMPTZ NOT NULL DEFAULT now())",
		c.table)
	if _, err = c.connection.Exec(createQuery); err != nil {
		return fmt.Errorf("не удалось создать таблицу %s: %v", c.table, err)
	}
	return nil
}

func (c *Connector) Save(rec store.Record) error {
	if rec == nil {
		return fmt.Errorf("некорректная ссылка на запись")
	}

	payload, err := rec.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %v", err)
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (kind, record_key, payload) VALUES ($1, $2, $3)", c.table)
	if _, err = c.connection.Exec(insertQuery, rec.Kind(), rec.Key(), payload); err != nil {
		return fmt.Errorf("не удалось вставить запись: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
