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

// Package channel abstracts the durable pub/sub transport the propagation
// engine rides on. Two bindings exist: a partitioned log with consumer groups
// (Kafka) and a topic exchange with durable queues (RabbitMQ). Both deliver
// at-least-once: a message is acknowledged or committed only after the
// handler returns nil.
package channel

import (
	"context"
)

// BrokerType identifies the transport binding.
type BrokerType string

const (
	BrokerTypeKafka    BrokerType = "kafka"
	BrokerTypeRabbitMQ BrokerType = "rabbitmq"
)

// Broker is the transport interface all bindings implement.
type Broker interface {
	// SendMessage publishes a single message. It returns once the transport
	// has accepted the message, not once subscribers have processed it.
	SendMessage(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error

	// Subscribe consumes the given topics under a durable group (Kafka
	// consumer group / RabbitMQ queue). The handler is invoked once per
	// delivered message; the message is acknowledged only after the handler
	// returns nil. Subscribe blocks until ctx is done.
	Subscribe(ctx context.Context, topics []string, group string, handler Handler) error

	// Close closes the connection.
	Close() error
}

// Message is a delivered or outgoing message.
type Message struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

// Handler processes a single delivered message. A nil return acknowledges
// the message; a non-nil return leaves it for redelivery.
type Handler func(ctx context.Context, msg *Message) error

// prefixTopic applies the configured topic prefix. Both bindings use it for
// publishing and subscribing so emitters and consumers sharing a prefix
// always agree on wire names.
func prefixTopic(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}

// New creates a Broker from the configured binding.
func New(opts ...Option) (Broker, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt.apply(config)
	}

	switch config.Type {
	case BrokerTypeKafka:
		return newKafkaBroker(config)
	case BrokerTypeRabbitMQ:
		return newRabbitMQBroker(config)
	default:
		return nil, errBrokerTypeRequired
	}
}
