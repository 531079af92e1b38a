package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_messages_received_total",
		Help: "Всего сообщений, принятых из канала синхронизации",
	})
	MalformedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_malformed_dropped_total",
		Help: "Всего отброшенных нечитаемых сообщений",
	})
	ReplaysDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_replays_dropped_total",
		Help: "Всего отброшенных повторов и опоздавших сообщений",
	})
	PositionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_positions_accepted_total",
		Help: "Всего принятых обновлений позиций",
	})
	AlertsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_alerts_fired_total",
		Help: "Всего сигналов о превышении скорости",
	})
	DistanceAccumulatedKm = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_distance_accumulated_km_total",
		Help: "Суммарный учтённый пробег парка в километрах",
	})
	ActiveVehicles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleetwatch_active_vehicles",
		Help: "Число ТС в активном срезе парка",
	})
)
