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
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type fakeSettler struct {
	committed []*kafka.Message
	seeks     []kafka.TopicPartition
	seekErr   error
}

func (f *fakeSettler) CommitMessage(m *kafka.Message) ([]kafka.TopicPartition, error) {
	f.committed = append(f.committed, m)
	return nil, nil
}

func (f *fakeSettler) Seek(tp kafka.TopicPartition, _ int) error {
	f.seeks = append(f.seeks, tp)
	return f.seekErr
}

func kafkaTestMessage(topic string, partition int32, offset int64) *kafka.Message {
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: partition,
			Offset:    kafka.Offset(offset),
		},
		Key:     []byte("t1"),
		Value:   []byte(`{}`),
		Headers: []kafka.Header{{Key: "messageId", Value: []byte("m1")}},
	}
}

func TestSettleMessage_CommitsOnSuccess(t *testing.T) {
	settler := &fakeSettler{}
	msg := kafkaTestMessage("team.user-added", 0, 5)

	var got *Message
	settleMessage(context.Background(), settler, "g1", msg, func(_ context.Context, m *Message) error {
		got = m
		return nil
	})

	if len(settler.committed) != 1 || settler.committed[0] != msg {
		t.Fatalf("expected the message to be committed, got %v", settler.committed)
	}
	if len(settler.seeks) != 0 {
		t.Errorf("unexpected seek on success: %v", settler.seeks)
	}
	if got == nil || got.Key != "t1" || got.Headers["messageId"] != "m1" {
		t.Errorf("handler received wrong message: %+v", got)
	}
}

func TestSettleMessage_RewindsPartitionOnHandlerError(t *testing.T) {
	settler := &fakeSettler{}
	msg := kafkaTestMessage("team.user-added", 2, 5)

	// Cancelled context skips the redelivery pause.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	settleMessage(ctx, settler, "g1", msg, func(context.Context, *Message) error {
		return errors.New("dead-letter publish failed")
	})

	if len(settler.committed) != 0 {
		t.Fatalf("failed message must not be committed, got %v", settler.committed)
	}
	if len(settler.seeks) != 1 {
		t.Fatalf("expected one seek, got %d", len(settler.seeks))
	}
	seek := settler.seeks[0]
	if *seek.Topic != "team.user-added" || seek.Partition != 2 || seek.Offset != kafka.Offset(5) {
		t.Errorf("seek must target the failed record, got %+v", seek)
	}
}

func TestSettleMessage_SeekFailureStillLeavesOffsetUncommitted(t *testing.T) {
	settler := &fakeSettler{seekErr: errors.New("seek failed")}
	msg := kafkaTestMessage("team.user-added", 0, 9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	settleMessage(ctx, settler, "g1", msg, func(context.Context, *Message) error {
		return errors.New("handler failed")
	})

	if len(settler.committed) != 0 {
		t.Errorf("failed message must not be committed even when seek fails")
	}
}
