package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/usecase"
)

// StatusProducer publishes order.status.changed events. Publishing happens
// inside the request that applied the transition; there is no background
// drainer, and a broker outage only costs the event, never the write.
type StatusProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewStatusProducer(brokers []string, topic string) (*StatusProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create sync producer: %w", err)
	}
	return &StatusProducer{producer: p, topic: topic}, nil
}

// PublishStatusChanged keys messages by order ID so all transitions for one
// order land on one partition, in order.
func (p *StatusProducer) PublishStatusChanged(_ context.Context, msg usecase.StatusChangedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.OrderID),
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (p *StatusProducer) Close() error {
	return p.producer.Close()
}

var _ usecase.StatusPublisher = (*StatusProducer)(nil)
