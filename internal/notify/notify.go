package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Transition is published for every applied status change.
type Transition struct {
	UserID      string    `json:"user_id"`
	DominoID    int       `json:"domino_id"`
	SignalName  string    `json:"signal_name"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	TriggerType string    `json:"trigger_type"`
	Reason      string    `json:"reason,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}

type Publisher interface {
	PublishTransition(ctx context.Context, ev Transition) error
	Close() error
}

type Nop struct{}

func (Nop) PublishTransition(context.Context, Transition) error { return nil }
func (Nop) Close() error { return nil }

// KafkaPublisher writes transitions as JSON, keyed by signal so one signal's
// events stay ordered on a partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic, clientID string, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Version = sarama.V2_8_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) PublishTransition(_ context.Context, ev Transition) error {
	if p == nil || p.producer == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.UserID + ":" + strconv.Itoa(ev.DominoID) + ":" + ev.SignalName),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("trigger_type"), Value: []byte(ev.TriggerType)},
		},
		Timestamp: ev.ChangedAt,
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	if p.logger != nil {
		p.logger.Debug("transition published",
			zap.String("topic", p.topic),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset),
		)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
