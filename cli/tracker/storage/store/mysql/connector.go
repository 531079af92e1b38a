package mysql

/*
Настройки, которые могут быть в конфиге для подключения хранилища:

host = "localhost"
port = "3306"
user = "root"
password = ""
database = "fleetwatch"
table = "fleet_event"
*/

import (
	"database/sql"
	"fmt"

	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store"
	_ "github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
)

type Connector struct {
	connection *sql.DB
	config     map[string]string
	table      string
}

func (c *Connector) Init(cfg map[string]string) error {
	var err error
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	connStr := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.config["user"], c.config["password"], c.config["host"], c.config["port"], c.config["database"])
	if c.connection, err = sql.Open("mysql", connStr); err != nil {
		return fmt.Errorf("ошибка подключения к MySQL: %v", err)
	}

	if err = c.connection.Ping(); err != nil {
		return fmt.Errorf("MySQL недоступен: %v", err)
	}

	c.table = c.config["table"]
	if c.table == "" {
		log.Warn("Ключ 'table' не найден в конфигурации хранилища. Используется значение по умолчанию 'fleet_event'.")
		c.table = "fleet_event"
	}

	createQuery := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id BIGINT AUTO_INCREMENT PRIMARY KEY, kind VARCHAR(16) NOT NULL, record_key VARCHAR(128) NOT NULL, payload JSON NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)",
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

	insertQuery := fmt.Sprintf("INSERT INTO %s (kind, record_key, payload) VALUES (?, ?, ?)", c.table)
	if _, err = c.connection.Exec(insertQuery, rec.Kind(), rec.Key(), payload); err != nil {
		return fmt.Errorf("не удалось вставить запись: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	return c.connection.Close()
}
