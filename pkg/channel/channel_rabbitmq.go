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

package channel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/crewsync/crewsync/pkg/log"
)

const defaultExchange = "crewsync.events"

// RabbitMQConfig represents RabbitMQ configuration.
type RabbitMQConfig struct {
	URL           string
	Exchange      string
	TopicPrefix   string
	PrefetchCount int
	PrefetchSize  int
	// Authentication configuration
	Username  string      // used when the URL carries no credentials
	Password  string      // used when the URL carries no credentials
	TLSConfig *tls.Config // optional
}

// NewRabbitMQConfig creates a RabbitMQ configuration using the option pattern.
func NewRabbitMQConfig(url string, opts ...RabbitMQOption) *RabbitMQConfig {
	config := &RabbitMQConfig{
		URL:           url,
		Exchange:      defaultExchange,
		PrefetchCount: 10,
		PrefetchSize:  0,
	}
	for _, opt := range opts {
		opt.apply(config)
	}
	return config
}

// rabbitmqBroker is the RabbitMQ binding: one durable topic exchange, one
// durable queue per (group, topic) pair, manual acknowledgement.
type rabbitmqBroker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *RabbitMQConfig
	mu      sync.Mutex
}

func newRabbitMQBroker(c *config) (Broker, error) {
	rabbitmqConfig := c.rabbitmq
	if rabbitmqConfig == nil {
		return nil, fmt.Errorf("rabbitmq configuration is required")
	}
	if rabbitmqConfig.TopicPrefix == "" {
		rabbitmqConfig.TopicPrefix = c.TopicPrefix
	}

	dialURL, err := amqpURL(rabbitmqConfig)
	if err != nil {
		return nil, err
	}

	var conn *amqp.Connection
	if rabbitmqConfig.TLSConfig != nil {
		conn, err = amqp.DialTLS(dialURL, rabbitmqConfig.TLSConfig)
	} else {
		conn, err = amqp.Dial(dialURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err = ch.Qos(rabbitmqConfig.PrefetchCount, rabbitmqConfig.PrefetchSize, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	if err = ch.ExchangeDeclare(
		rabbitmqConfig.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &rabbitmqBroker{
		conn:    conn,
		channel: ch,
		config:  rabbitmqConfig,
	}, nil
}

// SendMessage publishes a persistent message to the topic exchange.
func (b *rabbitmqBroker) SendMessage(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error {
	amqpHeaders := make(amqp.Table)
	for k, v := range headers {
		amqpHeaders[k] = v
	}

	err := b.channel.PublishWithContext(
		ctx,
		b.config.Exchange,
		prefixTopic(b.config.TopicPrefix, topic), // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         value,
			MessageId:    key,
			Headers:      amqpHeaders,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe binds a durable queue per topic under the given group and
// consumes until ctx is done. A message is acked only after the handler
// returns nil; failures are nacked back onto the queue.
func (b *rabbitmqBroker) Subscribe(ctx context.Context, topics []string, group string, handler Handler) error {
	for _, topic := range topics {
		queueName := queueNameFor(b.config.TopicPrefix, group, topic)

		queue, err := b.channel.QueueDeclare(
			queueName,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
		}

		if err := b.channel.QueueBind(
			queue.Name,
			prefixTopic(b.config.TopicPrefix, topic), // routing key
			b.config.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", queueName, err)
		}

		msgs, err := b.channel.Consume(
			queue.Name,
			"",    // consumer tag
			false, // manual acknowledgment
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to register consumer on %s: %w", queueName, err)
		}

		go func(queueName string) {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgs:
					if !ok {
						return
					}

					headers := make(map[string]string)
					for k, v := range msg.Headers {
						if str, ok := v.(string); ok {
							headers[k] = str
						}
					}

					message := &Message{
						Key:     msg.MessageId,
						Value:   msg.Body,
						Headers: headers,
					}

					if err := handler(ctx, message); err != nil {
						log.Warnw("rabbitmq handler failed, requeueing",
							"queue", queueName,
							"error", err,
						)
						_ = msg.Nack(false, true)
						continue
					}

					_ = msg.Ack(false)
				}
			}
		}(queue.Name)
	}

	<-ctx.Done()
	return nil
}

// Close closes the channel and the connection.
func (b *rabbitmqBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.channel != nil {
		if err := b.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing rabbitmq broker: %v", errs)
	}
	return nil
}

// queueNameFor derives the durable queue name for a (group, topic) binding.
func queueNameFor(prefix, group, topic string) string {
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, group, topic)
	return strings.Join(parts, ".")
}

// amqpURL injects configured credentials into the dial URL when it carries none.
func amqpURL(cfg *RabbitMQConfig) (string, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return cfg.URL, nil
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid rabbitmq url: %w", err)
	}
	if parsed.User != nil {
		return cfg.URL, nil
	}
	parsed.User = url.UserPassword(cfg.Username, cfg.Password)
	return parsed.String(), nil
}
