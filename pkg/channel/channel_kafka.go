package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/crewsync/crewsync/pkg/log"
)

const (
	defaultSessionTimeout  = 30000
	defaultMaxPollInterval = 300000
)

// KafkaConfig represents Kafka configuration.
type KafkaConfig struct {
	BootstrapServers string
	TopicPrefix      string
	SessionTimeout   int // milliseconds
	MaxPollInterval  int // milliseconds
	// Authentication configuration
	SASLMechanism    string // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	SASLUsername     string
	SASLPassword     string
	SecurityProtocol string // PLAINTEXT, SSL, SASL_PLAINTEXT, SASL_SSL
	SSLCAFile        string
	SSLCertFile      string
	SSLKeyFile       string
	SSLPassword      string
}

// NewKafkaConfig creates a Kafka configuration using the option pattern.
func NewKafkaConfig(bootstrapServers string, opts ...KafkaOption) *KafkaConfig {
	config := &KafkaConfig{
		BootstrapServers: bootstrapServers,
		SessionTimeout:   defaultSessionTimeout,
		MaxPollInterval:  defaultMaxPollInterval,
	}
	for _, opt := range opts {
		opt.apply(config)
	}
	return config
}

// kafkaBroker is the Kafka binding. It holds one shared producer; each
// Subscribe call runs its own consumer so every durable group gets an
// independent group.id.
type kafkaBroker struct {
	producer  *kafka.Producer
	config    *KafkaConfig
	mu        sync.Mutex
	consumers []*kafka.Consumer
	closed    bool
}

func newKafkaBroker(c *config) (Broker, error) {
	kafkaConfig := c.kafka
	if kafkaConfig == nil {
		return nil, fmt.Errorf("kafka configuration is required")
	}
	if kafkaConfig.TopicPrefix == "" {
		kafkaConfig.TopicPrefix = c.TopicPrefix
	}

	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":                     kafkaConfig.BootstrapServers,
		"acks":                                  "all",
		"retries":                               3,
		"max.in.flight.requests.per.connection": 5,
		"compression.type":                      "snappy",
	}
	applyKafkaAuthConfig(producerConfig, kafkaConfig)

	producer, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &kafkaBroker{
		producer: producer,
		config:   kafkaConfig,
	}, nil
}

// SendMessage publishes a single message and waits for broker acknowledgement.
func (b *kafkaBroker) SendMessage(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error {
	topic = prefixTopic(b.config.TopicPrefix, topic)

	kafkaHeaders := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{
			Key:   k,
			Value: []byte(v),
		})
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:     []byte(key),
		Value:   value,
		Headers: kafkaHeaders,
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := b.producer.Produce(message, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		m := e.(*kafka.Message)
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("failed to deliver message: %w", m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe runs a dedicated consumer under group until ctx is done.
// Offsets are committed only after the handler returns nil, so an unhandled
// message is redelivered after a crash or rebalance.
func (b *kafkaBroker) Subscribe(ctx context.Context, topics []string, group string, handler Handler) error {
	consumerConfig := &kafka.ConfigMap{
		"bootstrap.servers":    b.config.BootstrapServers,
		"group.id":             group,
		"auto.offset.reset":    "earliest",
		"enable.auto.commit":   false,
		"session.timeout.ms":   b.config.SessionTimeout,
		"max.poll.interval.ms": b.config.MaxPollInterval,
	}
	applyKafkaAuthConfig(consumerConfig, b.config)

	consumer, err := kafka.NewConsumer(consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer for group %s: %w", group, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = consumer.Close()
		return fmt.Errorf("broker is closed")
	}
	b.consumers = append(b.consumers, consumer)
	b.mu.Unlock()

	prefixed := make([]string, len(topics))
	for i, topic := range topics {
		prefixed[i] = prefixTopic(b.config.TopicPrefix, topic)
	}
	if err := consumer.SubscribeTopics(prefixed, nil); err != nil {
		return fmt.Errorf("failed to subscribe topics: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			msg, err := consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				log.Warnw("kafka read failed", "group", group, "error", err)
				continue
			}

			settleMessage(ctx, consumer, group, msg, handler)
		}
	}
}

// kafkaSettler is the subset of kafka.Consumer the settle path needs.
type kafkaSettler interface {
	CommitMessage(*kafka.Message) ([]kafka.TopicPartition, error)
	Seek(kafka.TopicPartition, int) error
}

// settleMessage runs the handler and settles the offset. Success commits the
// message. Failure rewinds the partition to the failed record before the next
// read: the fetch position has already advanced past it, and without the
// rewind a later commit on the same partition would implicitly acknowledge
// the failed message and lose it.
func settleMessage(ctx context.Context, consumer kafkaSettler, group string, msg *kafka.Message, handler Handler) {
	headers := make(map[string]string)
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	message := &Message{
		Key:     string(msg.Key),
		Value:   msg.Value,
		Headers: headers,
	}

	if err := handler(ctx, message); err != nil {
		log.Warnw("kafka handler failed, rewinding partition",
			"group", group,
			"topic", *msg.TopicPartition.Topic,
			"offset", msg.TopicPartition.Offset,
			"error", err,
		)
		if serr := consumer.Seek(kafka.TopicPartition{
			Topic:     msg.TopicPartition.Topic,
			Partition: msg.TopicPartition.Partition,
			Offset:    msg.TopicPartition.Offset,
		}, 0); serr != nil {
			log.Errorw("kafka seek failed, offset left uncommitted",
				"group", group, "error", serr)
		}
		// Pause before redelivery so a persistently failing message
		// does not spin the consumer.
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}

	if _, err := consumer.CommitMessage(msg); err != nil {
		log.Warnw("kafka offset commit failed", "group", group, "error", err)
	}
}

// Close closes the producer and every consumer.
func (b *kafkaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, consumer := range b.consumers {
		if err := consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
		}
	}

	if b.producer != nil {
		b.producer.Flush(15 * 1000)
		b.producer.Close()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing kafka broker: %v", errs)
	}
	return nil
}

// applyKafkaAuthConfig applies authentication settings to a config map.
func applyKafkaAuthConfig(config *kafka.ConfigMap, kafkaConfig *KafkaConfig) {
	if kafkaConfig.SecurityProtocol != "" {
		_ = config.SetKey("security.protocol", kafkaConfig.SecurityProtocol)
	}

	if kafkaConfig.SASLMechanism != "" {
		_ = config.SetKey("sasl.mechanism", kafkaConfig.SASLMechanism)
		if kafkaConfig.SASLUsername != "" {
			_ = config.SetKey("sasl.username", kafkaConfig.SASLUsername)
		}
		if kafkaConfig.SASLPassword != "" {
			_ = config.SetKey("sasl.password", kafkaConfig.SASLPassword)
		}
	}

	if kafkaConfig.SSLCAFile != "" {
		_ = config.SetKey("ssl.ca.location", kafkaConfig.SSLCAFile)
	}
	if kafkaConfig.SSLCertFile != "" {
		_ = config.SetKey("ssl.certificate.location", kafkaConfig.SSLCertFile)
	}
	if kafkaConfig.SSLKeyFile != "" {
		_ = config.SetKey("ssl.key.location", kafkaConfig.SSLKeyFile)
	}
	if kafkaConfig.SSLPassword != "" {
		_ = config.SetKey("ssl.key.password", kafkaConfig.SSLPassword)
	}
}
