package source

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/driver/producer"
	log "github.com/sirupsen/logrus"
)

const reconnectWait = 5 * time.Second

// мс -> км/ч
const msToKmh = 3.6

// Gpsd — источник координат, читающий TPV-отчёты демона gpsd
// построчно из TCP-сокета. Скорость в отчётах gpsd задана в м/с.
type Gpsd struct {
	Address string
}

type tpvReport struct {
	Class string  `json:"class"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Speed float64 `json:"speed"`
}

// Watch подключается к gpsd и передаёт измерения в канал.
// Разрыв соединения не терминален: подключение повторяется, пока
// не отменён контекст.
func (g *Gpsd) Watch(ctx context.Context) (<-chan producer.Sample, error) {
	if g.Address == "" {
		return nil, &net.AddrError{Err: "не задан адрес gpsd", Addr: g.Address}
	}

	samples := make(chan producer.Sample)
	go g.readLoop(ctx, samples)
	return samples, nil
}

func (g *Gpsd) readLoop(ctx context.Context, samples chan<- producer.Sample) {
	defer close(samples)

	for ctx.Err() == nil {
		if err := g.readOnce(ctx, samples); err != nil && ctx.Err() == nil {
			log.WithField("err", err).Warnf("Соединение с gpsd потеряно, переподключение через %s", reconnectWait)
		}

		select {
		case <-time.After(reconnectWait):
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gpsd) readOnce(ctx context.Context, samples chan<- producer.Sample) error {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", g.Address)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	// Команда включения потока отчётов в формате JSON.
	if _, err := conn.Write([]byte(`?WATCH={"enable":true,"json":true}` + "\n")); err != nil {
		return err
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		report := tpvReport{}
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			continue
		}
		if report.Class != "TPV" {
			continue
		}

		sample := producer.Sample{
			Latitude:  report.Lat,
			Longitude: report.Lon,
			SpeedKmh:  report.Speed * msToKmh,
			At:        time.Now(),
		}

		select {
		case samples <- sample:
		case <-ctx.Done():
			return nil
		}
	}
	return scanner.Err()
}
