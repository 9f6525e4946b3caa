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

// Package consumer binds one durable subscription per event kind to the
// propagation service. Transient propagation errors are retried in-process
// with backoff; exhausted or malformed messages go to the kind's dead-letter
// topic and are then acknowledged, so one poison message never wedges a
// subscription.
package consumer

import (
	"context"
	"time"

	"github.com/crewsync/crewsync/internal/engine/event"
	"github.com/crewsync/crewsync/internal/engine/service/propagation"
	"github.com/crewsync/crewsync/pkg/channel"
	"github.com/crewsync/crewsync/pkg/log"
	"github.com/crewsync/crewsync/pkg/metrics"
	"github.com/crewsync/crewsync/pkg/retry"
	"github.com/crewsync/crewsync/pkg/safe"
	"github.com/pkg/errors"
)

const (
	defaultMaxAttempts = 4
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryMax    = 5 * time.Second
)

// Config bounds the in-process retry loop.
type Config struct {
	MaxAttempts int
	RetryBase   time.Duration
	RetryMax    time.Duration
}

func (c *Config) normalize() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBase <= 0 {
		c.RetryBase = defaultRetryBase
	}
	if c.RetryMax <= 0 {
		c.RetryMax = defaultRetryMax
	}
}

// Dispatcher owns the per-kind consumers for the process lifetime.
type Dispatcher struct {
	broker channel.Broker
	svc    propagation.IPropagationService
	pm     *metrics.PropagationMetrics
	cfg    Config
}

func NewDispatcher(broker channel.Broker, svc propagation.IPropagationService, pm *metrics.PropagationMetrics, cfg Config) *Dispatcher {
	cfg.normalize()
	return &Dispatcher{broker: broker, svc: svc, pm: pm, cfg: cfg}
}

// Start launches one consumer goroutine per event kind and returns. The
// consumers run until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for _, kind := range event.Kinds() {
		kind := kind
		safe.Go(func() {
			d.consume(ctx, kind)
		})
	}
}

func (d *Dispatcher) consume(ctx context.Context, kind event.Kind) {
	topic := event.Topic(kind)
	group := event.Subscription(kind)
	log.Infow("consumer starting", "kind", kind, "topic", topic, "subscription", group)

	err := d.broker.Subscribe(ctx, []string{topic}, group, d.handlerFor(kind))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("consumer stopped", "kind", kind, "err", err)
		return
	}
	log.Infow("consumer stopped", "kind", kind)
}

// handlerFor returns the per-message handler for one event kind. A nil
// return acknowledges the message on the transport; malformed and exhausted
// messages are acknowledged only after the dead-letter publish succeeds.
func (d *Dispatcher) handlerFor(kind event.Kind) channel.Handler {
	return func(ctx context.Context, msg *channel.Message) error {
		evt, err := event.Decode(kind, msg.Value)
		if err != nil {
			log.Errorw("dropping malformed event payload",
				"kind", kind, "key", msg.Key, "err", err)
			d.countEvent(kind, "malformed")
			return d.deadLetter(ctx, kind, msg, "malformed", err)
		}

		var rep *propagation.Report
		err = retry.Do(ctx, func(ctx context.Context) error {
			var aerr error
			rep, aerr = d.svc.Apply(ctx, evt)
			return aerr
		},
			retry.WithMaxAttempts(d.cfg.MaxAttempts),
			retry.WithBackoff(retry.Exponential(d.cfg.RetryBase, d.cfg.RetryMax)),
			retry.WithJitter(retry.FullJitter),
			retry.WithRetryIf(retry.IsRetryable),
		)
		if err != nil {
			log.Errorw("propagation failed after retries",
				"kind", kind, "userId", evt.UserID, "err", err)
			d.countEvent(kind, "failed")
			return d.deadLetter(ctx, kind, msg, "exhausted", err)
		}

		if rep.Failed() {
			// Partially applied: the failed workspaces are reported, the
			// event is not replayed wholesale against the ones that
			// succeeded.
			log.Warnw("propagation partially applied",
				"kind", kind, "userId", evt.UserID, "report", rep.String())
			d.countEvent(kind, "partial")
			return nil
		}

		log.Infow("propagation applied",
			"kind", kind, "userId", evt.UserID, "report", rep.String())
		d.countEvent(kind, "ok")
		return nil
	}
}

// deadLetter publishes the raw payload to the kind's dead-letter topic. A
// failed publish returns the error so the transport redelivers the original
// message instead of losing it.
func (d *Dispatcher) deadLetter(ctx context.Context, kind event.Kind, msg *channel.Message, reason string, cause error) error {
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["kind"] = string(kind)
	headers["reason"] = reason
	if cause != nil {
		headers["error"] = cause.Error()
	}
	if err := d.broker.SendMessage(ctx, event.DeadLetterTopic(kind), msg.Key, msg.Value, headers); err != nil {
		log.Errorw("dead-letter publish failed",
			"kind", kind, "reason", reason, "err", err)
		return errors.Wrap(err, "publish dead letter")
	}
	if d.pm != nil {
		d.pm.DeadLettersTotal.WithLabelValues(string(kind), reason).Inc()
	}
	return nil
}

func (d *Dispatcher) countEvent(kind event.Kind, result string) {
	if d.pm != nil {
		d.pm.EventsTotal.WithLabelValues(string(kind), result).Inc()
	}
}
