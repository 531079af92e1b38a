package config

/*
Описание конфигурационного файла диспетчерского сервиса
*/

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

type Settings struct {
	RelayURL             string                       `yaml:"relay_url"`
	LookbackMinutes      int                          `yaml:"lookback_minutes"`
	ApiPort              int32                        `yaml:"api_port"`
	LogLevel             string                       `yaml:"log_level"`
	LogFilePath          string                       `yaml:"log_file_path"`
	LogMaxAgeDays        int                          `yaml:"log_max_age_days"`
	SpeedLimitKmh        float64                      `yaml:"speed_limit_kmh"`
	StaleAfterSeconds    int                          `yaml:"stale_after_seconds"`
	HistoryRetentionDays int                          `yaml:"history_retention_days"`
	SaveBufferSize       int                          `yaml:"save_buffer_size"`
	SaveWorkers          int                          `yaml:"save_workers"`
	PruneCronExpression  string                       `yaml:"prune_cron_expression"`
	Store                map[string]map[string]string `yaml:"storage"`
}

func (s *Settings) GetLookback() time.Duration {
	return time.Duration(s.LookbackMinutes) * time.Minute
}

func (s *Settings) GetStaleAfter() time.Duration {
	return time.Duration(s.StaleAfterSeconds) * time.Second
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	if c.RelayURL == "" {
		c.RelayURL = "nats://127.0.0.1:4222"
	}
	if c.LookbackMinutes == 0 {
		c.LookbackMinutes = 30
	}
	if c.ApiPort == 0 {
		c.ApiPort = 8080
	}
	if c.SpeedLimitKmh == 0 {
		c.SpeedLimitKmh = 60
	}
	if c.StaleAfterSeconds == 0 {
		c.StaleAfterSeconds = 3600
	}
	if c.HistoryRetentionDays == 0 {
		c.HistoryRetentionDays = 30
	}
	if c.SaveBufferSize == 0 {
		c.SaveBufferSize = 1000
	}
	if c.SaveWorkers == 0 {
		c.SaveWorkers = 4
	}
	if c.PruneCronExpression == "" {
		c.PruneCronExpression = "0 0 3 * * *"
	}

	if c.SpeedLimitKmh < 0 {
		log.Errorf("Некорректное ограничение скорости (%.1f), используется значение по умолчанию 60 км/ч", c.SpeedLimitKmh)
		c.SpeedLimitKmh = 60
	}
	if c.HistoryRetentionDays < 1 {
		log.Errorf("Некорректный срок хранения истории (%d дней), используется значение по умолчанию 30", c.HistoryRetentionDays)
		c.HistoryRetentionDays = 30
	}

	return c, err
}

func (s *Settings) GetHistoryRetentionDays() int {
	return s.HistoryRetentionDays
}
