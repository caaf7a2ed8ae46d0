package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"crono/internal/config"
	"crono/internal/logger"
	"crono/internal/models"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKafkaConfig = config.KafkaConfig{
	ProducerRetryMax:     1,
	ProducerRequiredAcks: 1,
	TopicTurnJoined:      "turn.joined",
	TopicTurnRemoved:     "turn.removed",
}

func TestNotifyQueueUpdatePublishesByType(t *testing.T) {
	mock := mocks.NewSyncProducer(t, NewSaramaConfig(testKafkaConfig))
	p := NewProducerWith(mock, testKafkaConfig, logger.InitializeTestZapLogger())
	defer p.Close()

	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "turn.removed" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "12" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var upd models.QueueUpdate
		if err := json.Unmarshal(val, &upd); err != nil {
			return err
		}
		if upd.Type != models.UpdateTypeTurnJoined || upd.Spot != 3 {
			return errors.New("unexpected payload")
		}
		return nil
	})

	ctx := context.Background()
	require.NoError(t, p.NotifyQueueUpdate(ctx, models.QueueUpdate{EventID: 12, Type: models.UpdateTypeTurnRemoved, Spot: 1}))
	require.NoError(t, p.NotifyQueueUpdate(ctx, models.QueueUpdate{EventID: 12, Type: models.UpdateTypeTurnJoined, Spot: 3}))
}

func TestNotifyQueueUpdateFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, NewSaramaConfig(testKafkaConfig))
	p := NewProducerWith(mock, testKafkaConfig, logger.InitializeTestZapLogger())
	defer p.Close()

	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := p.NotifyQueueUpdate(context.Background(), models.QueueUpdate{EventID: 1, Type: models.UpdateTypeTurnJoined})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestNotifyQueueUpdateUnknownType(t *testing.T) {
	mock := mocks.NewSyncProducer(t, NewSaramaConfig(testKafkaConfig))
	p := NewProducerWith(mock, testKafkaConfig, logger.InitializeTestZapLogger())
	defer p.Close()

	err := p.NotifyQueueUpdate(context.Background(), models.QueueUpdate{EventID: 1, Type: "queue_closed"})
	assert.Error(t, err)
}
