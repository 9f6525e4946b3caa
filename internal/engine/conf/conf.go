package conf

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/crewsync/crewsync/pkg/cache"
	"github.com/crewsync/crewsync/pkg/database"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/metrics"
)

// Kafka is the partitioned-log binding.
type Kafka struct {
	BootstrapServers string
	SessionTimeout   int
	MaxPollInterval  int
	SecurityProtocol string
	SaslMechanism    string
	Username         string
	Password         string
}

// RabbitMQ is the topic-exchange binding. Credentials live here, never in
// the URL checked into the config file.
type RabbitMQ struct {
	URL           string
	Exchange      string
	PrefetchCount int
	Username      string
	Password      string
}

// Broker selects and configures the transport binding.
type Broker struct {
	Type        string // kafka | rabbitmq
	TopicPrefix string
	Kafka       Kafka
	RabbitMQ    RabbitMQ
}

// Propagation bounds the propagation service and the consumer retry loop.
type Propagation struct {
	WriteTimeoutMs int
	MaxConcurrent  int64
	MaxAttempts    int
	RetryBaseMs    int
	RetryMaxMs     int
	VersionGuard   string // memory | redis
}

type AppConfig struct {
	Log         log.Conf
	Mongo       database.MongoDB
	Redis       cache.Redis
	Broker      Broker
	Metrics     metrics.Config
	Propagation Propagation
}

var (
	cfg  AppConfig
	once sync.Once
)

// NewConf loads the config file once for the process lifetime. Changes to
// the file are re-read in place for callers holding the returned value by
// pointer through Get.
func NewConf(confFile string) AppConfig {
	once.Do(func() {
		loaded, err := LoadConfigFile(confFile)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	})
	return cfg
}

// Get returns the current config snapshot, including hot-reloaded values.
func Get() AppConfig {
	return cfg
}

// LoadConfigFile reads and watches a TOML config file.
func LoadConfigFile(confFile string) (AppConfig, error) {
	var out AppConfig

	config := viper.New()
	config.SetConfigFile(confFile)
	config.SetConfigType("toml")
	if err := config.ReadInConfig(); err != nil {
		return out, errors.Wrap(err, "read config file")
	}

	config.WatchConfig()
	config.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("config file changed, reloading", "file", e.Name)
		var next AppConfig
		if err := config.Unmarshal(&next); err != nil {
			log.Errorw("reload config failed", "file", e.Name, "err", err)
			return
		}
		applyReload(next)
	})

	if err := config.Unmarshal(&out); err != nil {
		return out, errors.Wrap(err, "unmarshal config file")
	}
	return out, nil
}

// applyReload swaps the config snapshot and re-applies the log section when
// it changed. Connection settings (mongo, redis, broker) intentionally need
// a restart; the log level is the one knob operators turn on a live process.
func applyReload(next AppConfig) {
	prev := cfg
	cfg = next

	if next.Log == prev.Log {
		return
	}
	if err := log.Init(&next.Log); err != nil {
		log.Errorw("apply reloaded log config failed", "err", err)
		return
	}
	log.Infow("log config reloaded", "level", next.Log.Level, "output", next.Log.Output)
}
