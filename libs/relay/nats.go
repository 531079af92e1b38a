package relay

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	streamName  = "FLEET"
	subjectName = "fleet.positions"

	// Фиксированная пауза между попытками переподключения.
	reconnectWait = 5 * time.Second

	// Максимальный срок хранения сообщений в потоке. Ограничивает
	// объём догрузки после длительного простоя потребителя.
	streamMaxAge = 24 * time.Hour
)

// NatsChannel реализует Channel поверх NATS JetStream. Серверная отметка
// времени берётся из метаданных JetStream, переподключение и догрузка
// обеспечиваются клиентом и упорядоченным консьюмером.
type NatsChannel struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect устанавливает соединение с ретранслятором и создаёт поток,
// если он ещё не существует.
func Connect(url string) (*NatsChannel, error) {
	conn, err := nats.Connect(url,
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithField("err", err).Warn("Потеряно соединение с ретранслятором")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("Восстановлено соединение с ретранслятором %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к ретранслятору: %v", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("не удалось получить контекст JetStream: %v", err)
	}

	if _, err = js.StreamInfo(streamName); err == nats.ErrStreamNotFound {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{subjectName},
			Storage:  nats.FileStorage,
			MaxAge:   streamMaxAge,
		})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("не удалось создать поток %s: %v", streamName, err)
	}

	return &NatsChannel{conn: conn, js: js}, nil
}

// Publish отправляет сообщение в поток. Ошибка транспорта не фатальна:
// вызывающая сторона может повторить отправку на следующем тике.
func (c *NatsChannel) Publish(payload []byte) error {
	if _, err := c.js.Publish(subjectName, payload); err != nil {
		return fmt.Errorf("не удалось опубликовать сообщение: %v", err)
	}
	return nil
}

// Subscribe открывает живой поток входящих сообщений. При lookback > 0
// сначала догружаются сообщения за указанное окно, затем поток
// продолжается в реальном времени.
func (c *NatsChannel) Subscribe(lookback time.Duration) (*Subscription, error) {
	s := &Subscription{
		msgs: make(chan Message, 256),
		done: make(chan struct{}),
	}

	opts := []nats.SubOpt{nats.OrderedConsumer()}
	if lookback > 0 {
		opts = append(opts, nats.StartTime(time.Now().Add(-lookback)))
	} else {
		opts = append(opts, nats.DeliverNew())
	}

	sub, err := c.js.Subscribe(subjectName, func(m *nats.Msg) {
		meta, err := m.Metadata()
		if err != nil {
			log.WithField("err", err).Warn("Сообщение без метаданных JetStream")
			return
		}
		s.deliver(Message{Payload: m.Data, ServerTime: meta.Timestamp})
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось оформить подписку: %v", err)
	}

	s.sub = sub
	return s, nil
}

func (c *NatsChannel) Close() error {
	c.conn.Close()
	return nil
}

// Subscription — дескриптор подписки. Unsubscribe идемпотентен и
// синхронно останавливает доставку.
type Subscription struct {
	msgs   chan Message
	done   chan struct{}
	sub    *nats.Subscription
	mu     sync.Mutex
	closed bool
	once   sync.Once
}

// C возвращает канал входящих сообщений. Канал закрывается при отписке.
func (s *Subscription) C() <-chan Message {
	return s.msgs
}

// deliver передаёт сообщение потребителю. Медленный потребитель
// блокирует только горутину доставки клиента, но не публикацию.
func (s *Subscription) deliver(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.msgs <- m:
	case <-s.done:
	}
}

func (s *Subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if s.sub != nil {
			err = s.sub.Unsubscribe()
		}
		s.mu.Lock()
		s.closed = true
		close(s.msgs)
		s.mu.Unlock()
	})
	return err
}
