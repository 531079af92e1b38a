package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daniil11ru/fleetwatch/cli/tracker/api"
	"github.com/daniil11ru/fleetwatch/cli/tracker/config"
	"github.com/daniil11ru/fleetwatch/cli/tracker/consumer"
	"github.com/daniil11ru/fleetwatch/cli/tracker/distance"
	"github.com/daniil11ru/fleetwatch/cli/tracker/fleet"
	"github.com/daniil11ru/fleetwatch/cli/tracker/speedcontrol"
	"github.com/daniil11ru/fleetwatch/cli/tracker/storage"
	"github.com/daniil11ru/fleetwatch/cli/tracker/util"
	"github.com/daniil11ru/fleetwatch/libs/relay"
	"github.com/robfig/cron"

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

	repository := storage.NewRepository()
	if err := repository.LoadStorages(settings.Store); err != nil {
		log.Fatalf("Не удалось загрузить хранилища: %v", err)
		return
	}
	asyncRepository := storage.NewAsyncRepository(repository, settings.SaveBufferSize, settings.SaveWorkers)
	defer asyncRepository.Close()

	channel, err := relay.Connect(settings.RelayURL)
	if err != nil {
		log.Fatalf("Не удалось подключиться к каналу синхронизации %s: %v", settings.RelayURL, err)
		return
	}
	defer channel.Close()

	fleetState := fleet.New(settings.GetStaleAfter())
	detector := speedcontrol.NewDetector(settings.SpeedLimitKmh)
	accumulator := distance.NewAccumulator()

	hub := api.NewHub()
	loop := consumer.New(fleetState, detector, accumulator, asyncRepository)
	loop.Broadcast = hub.Broadcast

	schedulePruning(repository, settings)

	sub, err := channel.Subscribe(settings.GetLookback())
	if err != nil {
		log.Fatalf("Не удалось подписаться на канал синхронизации: %v", err)
		return
	}
	defer sub.Unsubscribe()

	log.Infof("Подписка на канал синхронизации установлена, глубина дочитывания %s", settings.GetLookback())
	go loop.Run(sub.C())

	go runApi(fleetState, detector, accumulator, repository, hub, settings.ApiPort)

	select {}
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

func schedulePruning(repository *storage.Repository, settings config.Settings) {
	pruner := repository.Pruner()
	if pruner == nil {
		log.Info("Хранилище с поддержкой очистки истории не настроено, очистка отключена")
		return
	}

	retention := settings.GetHistoryRetentionDays()
	c := cron.New()
	c.AddFunc(settings.PruneCronExpression, func() {
		cutoff := distance.DateKey(time.Now().AddDate(0, 0, -retention))
		removed, err := pruner.PruneTracks(cutoff)
		if err != nil {
			log.WithField("err", err).Error("Не удалось очистить историю маршрутов")
			return
		}
		log.Infof("Очистка истории: удалено %d ключей старше %s", removed, cutoff)
	})
	c.Start()
	log.Info("Запланирована ежедневная очистка истории маршрутов")
}

func runApi(f *fleet.Fleet, d *speedcontrol.Detector, a *distance.Accumulator, repository *storage.Repository, hub *api.Hub, port int32) {
	handler := api.NewHandler(f, d, a, repository.Tracks())
	controller := api.NewController(handler, hub)
	log.Infof("Запуск API на порту %d", port)
	if err := controller.Run(port); err != nil {
		log.Fatal(err)
	}
}
