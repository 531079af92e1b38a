package nats

/*
Плагин для ретрансляции принятых записей в архивные темы NATS.
Конверт кодируется msgpack для компактности.

Раздел настроек, которые должны отвечать в конфиге для подключения хранилища:

servers = "nats://localhost:4222"
subject_prefix = "archive"
*/

import (
	"fmt"

	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store"
	"github.com/nats-io/nats.go"
	"gopkg.in/vmihailenco/msgpack.v2"
)

type envelope struct {
	Kind    string `msgpack:"kind"`
	Key     string `msgpack:"key"`
	Payload []byte `msgpack:"payload"`
}

type Connector struct {
	connection *nats.Conn
	prefix     string
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	var err error
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	if c.connection, err = nats.Connect(c.config["servers"]); err != nil {
		return fmt.Errorf("не удалось подключиться к NATS: %v", err)
	}

	c.prefix = c.config["subject_prefix"]
	if c.prefix == "" {
		c.prefix = "archive"
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

	body, err := msgpack.Marshal(envelope{Kind: rec.Kind(), Key: rec.Key(), Payload: payload})
	if err != nil {
		return fmt.Errorf("ошибка кодирования конверта: %v", err)
	}

	subject := fmt.Sprintf("%s.%s", c.prefix, rec.Kind())
	if err = c.connection.Publish(subject, body); err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	c.connection.Close()
	return nil
}
