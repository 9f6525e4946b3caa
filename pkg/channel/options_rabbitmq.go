package channel

import (
	"crypto/tls"
)

// RabbitMQOption is the interface for RabbitMQ-specific configuration options.
type RabbitMQOption interface {
	apply(*RabbitMQConfig)
}

type rabbitmqOptionFunc func(*RabbitMQConfig)

func (f rabbitmqOptionFunc) apply(c *RabbitMQConfig) {
	f(c)
}

// WithRabbitMQExchange sets the exchange name.
func WithRabbitMQExchange(exchange string) RabbitMQOption {
	return rabbitmqOptionFunc(func(c *RabbitMQConfig) {
		c.Exchange = exchange
	})
}

// WithRabbitMQPrefetch sets the prefetch configuration.
func WithRabbitMQPrefetch(count, size int) RabbitMQOption {
	return rabbitmqOptionFunc(func(c *RabbitMQConfig) {
		c.PrefetchCount = count
		c.PrefetchSize = size
	})
}

// WithRabbitMQAuth sets credentials used when the URL carries none.
func WithRabbitMQAuth(username, password string) RabbitMQOption {
	return rabbitmqOptionFunc(func(c *RabbitMQConfig) {
		c.Username = username
		c.Password = password
	})
}

// WithRabbitMQTLS sets the TLS configuration.
func WithRabbitMQTLS(tlsConfig *tls.Config) RabbitMQOption {
	return rabbitmqOptionFunc(func(c *RabbitMQConfig) {
		c.TLSConfig = tlsConfig
	})
}
