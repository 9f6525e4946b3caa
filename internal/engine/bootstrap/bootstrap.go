// Copyright 2025 CrewSync Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bootstrap assembles the engine from its config: store clients,
// transport binding, metrics, and the per-kind consumers.
package bootstrap

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/crewsync/crewsync/internal/engine/conf"
	"github.com/crewsync/crewsync/internal/engine/consumer"
	"github.com/crewsync/crewsync/internal/engine/emitter"
	userrepo "github.com/crewsync/crewsync/internal/engine/repo/user"
	wsrepo "github.com/crewsync/crewsync/internal/engine/repo/workspace"
	"github.com/crewsync/crewsync/internal/engine/service/propagation"
	"github.com/crewsync/crewsync/pkg/cache"
	"github.com/crewsync/crewsync/pkg/channel"
	"github.com/crewsync/crewsync/pkg/database"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/metrics"
)

// App holds the engine's long-lived components.
type App struct {
	cfg conf.AppConfig

	mongo   *database.MongoClient
	rdb     *redis.Client
	broker  channel.Broker
	metrics *metrics.Server

	dispatcher *consumer.Dispatcher
	Emitter    *emitter.Emitter

	cancel context.CancelFunc
}

// New builds the engine. Nothing consumes or serves yet; call Start.
func New(ctx context.Context, cfg conf.AppConfig) (*App, error) {
	mongo, err := database.NewMongoDB(ctx, cfg.Mongo)
	if err != nil {
		return nil, errors.Wrap(err, "connect mongodb")
	}

	broker, err := NewBroker(cfg.Broker)
	if err != nil {
		return nil, errors.Wrap(err, "create broker")
	}

	app := &App{
		cfg:    cfg,
		mongo:  mongo,
		broker: broker,
	}

	guard, err := app.newGuard(cfg)
	if err != nil {
		return nil, err
	}

	pm := metrics.NewPropagationMetrics()
	if cfg.Metrics.Enable {
		app.metrics = metrics.NewServer(cfg.Metrics)
		if err := pm.Register(app.metrics.Registry()); err != nil {
			return nil, errors.Wrap(err, "register collectors")
		}
	}

	workspaces := wsrepo.NewWorkspaceRepo(mongo)
	users := userrepo.NewUserRepo(mongo)

	svc := propagation.NewService(workspaces, users, guard, pm, propagation.Config{
		WriteTimeout:  time.Duration(cfg.Propagation.WriteTimeoutMs) * time.Millisecond,
		MaxConcurrent: cfg.Propagation.MaxConcurrent,
	})

	app.dispatcher = consumer.NewDispatcher(broker, svc, pm, consumer.Config{
		MaxAttempts: cfg.Propagation.MaxAttempts,
		RetryBase:   time.Duration(cfg.Propagation.RetryBaseMs) * time.Millisecond,
		RetryMax:    time.Duration(cfg.Propagation.RetryMaxMs) * time.Millisecond,
	})
	app.Emitter = emitter.New(broker)

	if err := workspaces.EnsureIndexes(ctx); err != nil {
		return nil, errors.Wrap(err, "ensure indexes")
	}
	return app, nil
}

func (a *App) newGuard(cfg conf.AppConfig) (propagation.VersionGuard, error) {
	switch cfg.Propagation.VersionGuard {
	case "redis":
		rdb, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, errors.Wrap(err, "connect redis")
		}
		a.rdb = rdb
		return propagation.NewRedisGuard(rdb), nil
	case "", "memory":
		return propagation.NewMemoryGuard(), nil
	default:
		return nil, errors.Errorf("unknown version guard: %s", cfg.Propagation.VersionGuard)
	}
}

// Start launches the metrics server and the per-kind consumers.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.metrics != nil {
		if err := a.metrics.Start(); err != nil {
			return errors.Wrap(err, "start metrics server")
		}
	}
	a.dispatcher.Start(ctx)
	log.Infow("engine started", "broker", a.cfg.Broker.Type)
	return nil
}

// Stop cancels the consumers and closes every connection.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.broker.Close(); err != nil {
		log.Errorw("close broker failed", "err", err)
	}
	if a.metrics != nil {
		if err := a.metrics.Stop(ctx); err != nil {
			log.Errorw("stop metrics server failed", "err", err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			log.Errorw("close redis failed", "err", err)
		}
	}
	if err := a.mongo.Close(ctx); err != nil {
		log.Errorw("close mongodb failed", "err", err)
	}
	log.Infow("engine stopped")
}

// NewBroker builds the transport binding selected by the config.
func NewBroker(cfg conf.Broker) (channel.Broker, error) {
	opts := []channel.Option{channel.WithTopicPrefix(cfg.TopicPrefix)}

	switch channel.BrokerType(cfg.Type) {
	case channel.BrokerTypeKafka:
		var kopts []channel.KafkaOption
		if cfg.Kafka.SessionTimeout > 0 {
			kopts = append(kopts, channel.WithKafkaSessionTimeout(cfg.Kafka.SessionTimeout))
		}
		if cfg.Kafka.MaxPollInterval > 0 {
			kopts = append(kopts, channel.WithKafkaMaxPollInterval(cfg.Kafka.MaxPollInterval))
		}
		if cfg.Kafka.Username != "" {
			kopts = append(kopts, channel.WithKafkaAuth(
				cfg.Kafka.SecurityProtocol, cfg.Kafka.SaslMechanism,
				cfg.Kafka.Username, cfg.Kafka.Password))
		}
		opts = append(opts, channel.WithKafka(cfg.Kafka.BootstrapServers, kopts...))
	case channel.BrokerTypeRabbitMQ:
		var ropts []channel.RabbitMQOption
		if cfg.RabbitMQ.Exchange != "" {
			ropts = append(ropts, channel.WithRabbitMQExchange(cfg.RabbitMQ.Exchange))
		}
		if cfg.RabbitMQ.PrefetchCount > 0 {
			ropts = append(ropts, channel.WithRabbitMQPrefetch(cfg.RabbitMQ.PrefetchCount, 0))
		}
		if cfg.RabbitMQ.Username != "" {
			ropts = append(ropts, channel.WithRabbitMQAuth(cfg.RabbitMQ.Username, cfg.RabbitMQ.Password))
		}
		opts = append(opts, channel.WithRabbitMQ(cfg.RabbitMQ.URL, ropts...))
	default:
		return nil, errors.Errorf("unknown broker type: %s", cfg.Type)
	}

	return channel.New(opts...)
}
