package relay

import "time"

// DefaultLookback определяет окно догрузки сообщений при переподключении.
// Короткие разрывы связи не теряют данные, при длительном простое
// поток деградирует до "нет данных" за счёт ограниченного хранения.
const DefaultLookback = 30 * time.Minute

// Message — входящее сообщение канала синхронизации. ServerTime
// назначается ретранслятором в момент приёма и является единственным
// авторитетным источником для упорядочивания и фильтрации устаревших
// позиций; часам устройства доверять нельзя.
type Message struct {
	Payload    []byte
	ServerTime time.Time
}

// Channel — транспортная абстракция канала синхронизации.
// Publish отправляет сообщение всем текущим и будущим подписчикам
// по принципу "отправил и забыл". Subscribe возвращает живой поток
// входящих сообщений с догрузкой за указанное окно.
type Channel interface {
	Publish(payload []byte) error
	Subscribe(lookback time.Duration) (*Subscription, error)
	Close() error
}
