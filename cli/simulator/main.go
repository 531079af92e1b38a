package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daniil11ru/fleetwatch/libs/relay"
	"github.com/daniil11ru/fleetwatch/libs/track"
)

/*
Генератор тестового парка.

Публикует в канал синхронизации положения нескольких виртуальных ТС,
двигающихся случайным блужданием вокруг стартовых координат.

Usage:
  -server string
    	Адрес NATS-сервера (default "nats://127.0.0.1:4222")
  -period int
    	Период публикации в миллисекундах (default 1000)
  -limit float
    	Ограничение скорости для вычисления статуса, км/ч (default 60)
  -seed int
    	Зерно генератора случайных чисел, 0 — от текущего времени

Example

```
./simulator --server nats://127.0.0.1:4222 --period 1000 --limit 60
```
*/

type vehicle struct {
	msg track.Message
}

func seedFleet() []vehicle {
	return []vehicle{
		{track.Message{ID: "V-001", Name: "Camión Norte 01", Driver: "Luis Rodríguez", Location: [2]float64{4.6097, -74.0817}, Speed: 45}},
		{track.Message{ID: "V-002", Name: "Van Entrega 02", Driver: "María García", Location: [2]float64{4.6597, -74.1017}, Speed: 85}},
		{track.Message{ID: "V-003", Name: "Trailer Pesado 03", Driver: "Carlos Pérez", Location: [2]float64{4.6297, -74.0517}, Speed: 0}},
		{track.Message{ID: "V-004", Name: "Pickup Logística 04", Driver: "Ana López", Location: [2]float64{6.2442, -75.5812}, Speed: 62}},
		{track.Message{ID: "V-005", Name: "Moto Mensajería 05", Driver: "Jorge Ruiz", Location: [2]float64{3.4516, -76.5320}, Speed: 30}},
	}
}

func main() {
	server := ""
	period := 0
	limit := 0.0
	seed := int64(0)

	flag.StringVar(&server, "server", "nats://127.0.0.1:4222", "Адрес NATS-сервера")
	flag.IntVar(&period, "period", 1000, "Период публикации в миллисекундах")
	flag.Float64Var(&limit, "limit", 60, "Ограничение скорости для вычисления статуса, км/ч")
	flag.Int64Var(&seed, "seed", 0, "Зерно генератора случайных чисел, 0 — от текущего времени")

	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	channel, err := relay.Connect(server)
	if err != nil {
		fmt.Println("Ошибка подключения к каналу синхронизации: ", err)
		os.Exit(1)
	}
	defer channel.Close()

	fleet := seedFleet()
	fmt.Printf("Публикация %d виртуальных ТС каждые %d мс\n", len(fleet), period)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(period) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for i := range fleet {
				step(&fleet[i], rng, limit)
				payload, err := fleet[i].msg.Encode()
				if err != nil {
					fmt.Println("Ошибка кодирования сообщения: ", err)
					os.Exit(1)
				}
				if err := channel.Publish(payload); err != nil {
					fmt.Println("Ошибка публикации: ", err)
				}
			}
		case <-stop:
			fmt.Println("Генератор остановлен")
			return
		}
	}
}

// step делает один шаг случайного блуждания: скорость дрейфует в пределах
// ±5 км/ч, координаты — в пределах ±0.0005 градуса.
func step(v *vehicle, rng *rand.Rand, limit float64) {
	v.msg.Speed += (rng.Float64() - 0.5) * 10
	if v.msg.Speed < 0 {
		v.msg.Speed = 0
	}
	v.msg.Location[0] += (rng.Float64() - 0.5) * 0.001
	v.msg.Location[1] += (rng.Float64() - 0.5) * 0.001
	v.msg.Status = track.DeriveStatus(v.msg.Speed, limit)
	v.msg.LastUpdate = time.Now().UnixMilli()
}
