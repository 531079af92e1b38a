package config

/*
Описание конфигурационного файла водительского агента
*/

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

type Settings struct {
	RelayURL        string            `yaml:"relay_url"`
	VehicleID       string            `yaml:"vehicle_id"`
	VehicleName     string            `yaml:"vehicle_name"`
	DriverName      string            `yaml:"driver_name"`
	SpeedLimitKmh   float64           `yaml:"speed_limit_kmh"`
	PublishPeriodMs int               `yaml:"publish_period_ms"`
	LogLevel        string            `yaml:"log_level"`
	LogFilePath     string            `yaml:"log_file_path"`
	LogMaxAgeDays   int               `yaml:"log_max_age_days"`
	Source          map[string]string `yaml:"source"`
}

func (s *Settings) GetPublishPeriod() time.Duration {
	return time.Duration(s.PublishPeriodMs) * time.Millisecond
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
	if c.SpeedLimitKmh == 0 {
		c.SpeedLimitKmh = 60
	}
	if c.PublishPeriodMs == 0 {
		c.PublishPeriodMs = 1000
	}

	return c, err
}
