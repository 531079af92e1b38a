package config

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	log "github.com/sirupsen/logrus"
)

func TestConfigLoad(t *testing.T) {
	// To prevent log output during tests
	log.SetOutput(ioutil.Discard)

	cfg := `relay_url: "nats://10.0.0.5:4222"
lookback_minutes: 15
api_port: 9090
log_level: "DEBUG"
speed_limit_kmh: 80
stale_after_seconds: 1800

storage:
  redis:
    host: "localhost"
    port: "6379"
  rabbitmq:
    host: "localhost"
    port: "5672"
    user: "guest"
    password: "guest"
    exchange: "fleetwatch"
`

	file, err := ioutil.TempFile("/tmp", "config.yaml")
	if !assert.NoError(t, err) {
		return
	}
	defer os.Remove(file.Name())

	if _, err = file.WriteString(cfg); !assert.NoError(t, err) {
		return
	}

	conf, err := New(file.Name())
	if assert.NoError(t, err) {
		assert.Equal(t, "nats://10.0.0.5:4222", conf.RelayURL)
		assert.Equal(t, 15*time.Minute, conf.GetLookback())
		assert.Equal(t, int32(9090), conf.ApiPort)
		assert.Equal(t, log.DebugLevel, conf.GetLogLevel())
		assert.Equal(t, 80.0, conf.SpeedLimitKmh)
		assert.Equal(t, 30*time.Minute, conf.GetStaleAfter())
		assert.Equal(t, map[string]map[string]string{
			"redis": {
				"host": "localhost",
				"port": "6379",
			},
			"rabbitmq": {
				"exchange": "fleetwatch",
				"host":     "localhost",
				"password": "guest",
				"port":     "5672",
				"user":     "guest",
			},
		}, conf.Store)
	}
}

func TestConfigDefaults(t *testing.T) {
	log.SetOutput(ioutil.Discard)

	file, err := ioutil.TempFile("/tmp", "config.yaml")
	if !assert.NoError(t, err) {
		return
	}
	defer os.Remove(file.Name())

	conf, err := New(file.Name())
	if assert.NoError(t, err) {
		assert.Equal(t, "nats://127.0.0.1:4222", conf.RelayURL)
		assert.Equal(t, 30*time.Minute, conf.GetLookback())
		assert.Equal(t, int32(8080), conf.ApiPort)
		assert.Equal(t, log.InfoLevel, conf.GetLogLevel())
		assert.Equal(t, 60.0, conf.SpeedLimitKmh)
		assert.Equal(t, time.Hour, conf.GetStaleAfter())
		assert.Equal(t, 30, conf.GetHistoryRetentionDays())
		assert.Equal(t, 1000, conf.SaveBufferSize)
		assert.Equal(t, 4, conf.SaveWorkers)
		assert.Equal(t, "0 0 3 * * *", conf.PruneCronExpression)
	}
}

func TestConfigRejectsBadValues(t *testing.T) {
	log.SetOutput(ioutil.Discard)

	cfg := `speed_limit_kmh: -10
history_retention_days: -1
`

	file, err := ioutil.TempFile("/tmp", "config.yaml")
	if !assert.NoError(t, err) {
		return
	}
	defer os.Remove(file.Name())

	if _, err = file.WriteString(cfg); !assert.NoError(t, err) {
		return
	}

	conf, err := New(file.Name())
	if assert.NoError(t, err) {
		assert.Equal(t, 60.0, conf.SpeedLimitKmh)
		assert.Equal(t, 30, conf.GetHistoryRetentionDays())
	}
}

func TestConfigMissingFile(t *testing.T) {
	_, err := New("/tmp/non_existent_fleetwatch_config.yaml")
	assert.Error(t, err)
}
