package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/daniil11ru/fleetwatch/cli/driver/config"
	"github.com/daniil11ru/fleetwatch/cli/driver/producer"
	"github.com/daniil11ru/fleetwatch/cli/driver/source"
	"github.com/daniil11ru/fleetwatch/cli/tracker/util"
	"github.com/daniil11ru/fleetwatch/libs/relay"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "")
	flag.Parse()
	settings, err := getConfig(configFilePath)
	if err != nil {
		log.Fatalf("Не удалось получить конфиг: %v", err)
		return
	}

	configureLogging(settings)

	if settings.VehicleID == "" {
		log.Fatal("Не задан идентификатор ТС")
		return
	}

	channel, err := relay.Connect(settings.RelayURL)
	if err != nil {
		log.Fatalf("Не удалось подключиться к каналу синхронизации %s: %v", settings.RelayURL, err)
		return
	}
	defer channel.Close()

	positionSource, err := buildSource(settings.Source)
	if err != nil {
		log.Fatalf("Не удалось настроить источник координат: %v", err)
		return
	}

	loop := producer.Loop{
		Source:    positionSource,
		Publisher: channel,
		Vehicle: producer.Identity{
			ID:     settings.VehicleID,
			Name:   settings.VehicleName,
			Driver: settings.DriverName,
		},
		SpeedLimitKmh: settings.SpeedLimitKmh,
		Interval:      settings.GetPublishPeriod(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Start(ctx); err != nil {
		log.Fatalf("Не удалось запустить цикл публикации: %v", err)
		return
	}

	log.Infof("Публикация положения ТС %s каждые %s", settings.VehicleID, settings.GetPublishPeriod())

	<-ctx.Done()
	loop.Stop()
	log.Info("Агент остановлен")
}

func getConfig(configFilePath string) (config.Settings, error) {
	var c config.Settings
	var err error

	if configFilePath == "" {
		return c, &util.ErrorString{S: "не задан путь до конфига"}
	}

	c, err = config.New(configFilePath)
	if err != nil {
		return c, fmt.Errorf("ошибка парсинга конфига: %v", err)
	}

	return c, nil
}

func buildSource(cfg map[string]string) (producer.Source, error) {
	switch cfg["type"] {
	case "gpsd", "":
		return &source.Gpsd{Address: cfg["address"]}, nil
	default:
		return nil, &util.ErrorString{S: "неизвестный тип источника координат: " + cfg["type"]}
	}
}

func configureLogging(settings config.Settings) {
	log.SetLevel(settings.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	if settings.LogFilePath != "" {
		logDir := filepath.Dir(settings.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Не получилось создать директорию для логов: %v", err)
			}
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   settings.LogFilePath,
			MaxSize:    100,
			MaxBackups: 366,
			MaxAge:     settings.LogMaxAgeDays,
			Compress:   true,
		}

		fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
		hook := lfshook.NewHook(lfshook.WriterMap{
			log.PanicLevel: lumberjackLogger,
			log.FatalLevel: lumberjackLogger,
			log.ErrorLevel: lumberjackLogger,
			log.WarnLevel:  lumberjackLogger,
			log.InfoLevel:  lumberjackLogger,
			log.DebugLevel: lumberjackLogger,
			log.TraceLevel: lumberjackLogger,
		}, fileFmt)

		log.AddHook(hook)
	}
}
