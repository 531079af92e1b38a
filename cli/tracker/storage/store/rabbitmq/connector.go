package rabbitmq

/*
Плагин для ретрансляции принятых записей внешним потребителям через RabbitMQ.

Раздел настроек, которые должны отвечать в конфиге для подключения хранилища:

host = "localhost"
port = "5672"
user = "guest"
password = "guest"
exchange = "fleetwatch"
*/

import (
	"fmt"

	"github.com/daniil11ru/fleetwatch/cli/tracker/storage/store"
	"github.com/streadway/amqp"
)

type Connector struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	config     map[string]string
}

func (c *Connector) Init(cfg map[string]string) error {
	var err error
	if cfg == nil {
		return fmt.Errorf("некорректная ссылка на конфигурацию")
	}
	c.config = cfg

	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.config["user"], c.config["password"], c.config["host"], c.config["port"])
	if c.connection, err = amqp.Dial(connStr); err != nil {
		return fmt.Errorf("не удалось подключиться к RabbitMQ: %v", err)
	}

	if c.channel, err = c.connection.Channel(); err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %v", err)
	}

	c.exchange = c.config["exchange"]
	if c.exchange == "" {
		c.exchange = "fleetwatch"
	}

	if err = c.channel.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("не удалось объявить exchange %s: %v", c.exchange, err)
	}
	return nil
}

// Save публикует запись с ключом маршрутизации по виду записи,
// внешние потребители подписываются на track.*, alert.* и так далее.
func (c *Connector) Save(rec store.Record) error {
	if rec == nil {
		return fmt.Errorf("некорректная ссылка на запись")
	}

	payload, err := rec.ToBytes()
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %v", err)
	}

	routingKey := fmt.Sprintf("%s.%s", rec.Kind(), rec.Key())
	err = c.channel.Publish(c.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("не удалось отправить сообщение: %v", err)
	}
	return nil
}

func (c *Connector) Close() error {
	if err := c.channel.Close(); err != nil {
		return err
	}
	return c.connection.Close()
}
