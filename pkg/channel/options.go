package channel

import (
	"errors"
)

var errBrokerTypeRequired = errors.New("broker type is required, use WithKafka or WithRabbitMQ")

// Option configures the channel.
type Option interface {
	apply(*config)
}

type config struct {
	Type        BrokerType
	TopicPrefix string

	kafka    *KafkaConfig
	rabbitmq *RabbitMQConfig
}

func defaultConfig() *config {
	return &config{}
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithKafka selects the Kafka binding.
func WithKafka(bootstrapServers string, opts ...KafkaOption) Option {
	return optionFunc(func(c *config) {
		c.Type = BrokerTypeKafka
		c.kafka = NewKafkaConfig(bootstrapServers, opts...)
	})
}

// WithRabbitMQ selects the RabbitMQ binding.
func WithRabbitMQ(url string, opts ...RabbitMQOption) Option {
	return optionFunc(func(c *config) {
		c.Type = BrokerTypeRabbitMQ
		c.rabbitmq = NewRabbitMQConfig(url, opts...)
	})
}

// WithTopicPrefix prefixes every topic (publish and subscribe, both
// bindings) and the derived RabbitMQ queue names.
func WithTopicPrefix(prefix string) Option {
	return optionFunc(func(c *config) {
		c.TopicPrefix = prefix
	})
}
