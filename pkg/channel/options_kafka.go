package channel

// KafkaOption is the interface for Kafka-specific configuration options.
type KafkaOption interface {
	apply(*KafkaConfig)
}

type kafkaOptionFunc func(*KafkaConfig)

func (f kafkaOptionFunc) apply(c *KafkaConfig) {
	f(c)
}

// WithKafkaSessionTimeout sets the consumer session timeout in milliseconds.
func WithKafkaSessionTimeout(timeout int) KafkaOption {
	return kafkaOptionFunc(func(c *KafkaConfig) {
		c.SessionTimeout = timeout
	})
}

// WithKafkaMaxPollInterval sets the maximum poll interval in milliseconds.
func WithKafkaMaxPollInterval(interval int) KafkaOption {
	return kafkaOptionFunc(func(c *KafkaConfig) {
		c.MaxPollInterval = interval
	})
}

// WithKafkaAuth sets the SASL authentication configuration.
func WithKafkaAuth(securityProtocol, saslMechanism, username, password string) KafkaOption {
	return kafkaOptionFunc(func(c *KafkaConfig) {
		c.SecurityProtocol = securityProtocol
		c.SASLMechanism = saslMechanism
		c.SASLUsername = username
		c.SASLPassword = password
	})
}

// WithKafkaSSL sets the SSL certificate configuration.
func WithKafkaSSL(caFile, certFile, keyFile, password string) KafkaOption {
	return kafkaOptionFunc(func(c *KafkaConfig) {
		c.SSLCAFile = caFile
		c.SSLCertFile = certFile
		c.SSLKeyFile = keyFile
		c.SSLPassword = password
	})
}
