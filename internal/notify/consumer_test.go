package notify

import (
	"context"
	"encoding/json"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"firebase.google.com/go/v4/messaging"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, message *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, message)
	return "msg-id", nil
}

type fakeUserReader struct {
	byID map[uuid.UUID]*models.User
}

func (f *fakeUserReader) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func testConsumer(sender *fakeSender, users *fakeUserReader) *Consumer {
	return &Consumer{
		sender: sender,
		users:  users,
		logg:   logger.New(logger.Options{ServiceName: "test"}),
	}
}

func encodeMessage(t *testing.T, message Message) []byte {
	t.Helper()
	data, err := json.Marshal(message)
	require.NoError(t, err)
	return data
}

func TestProcessTopicSendForBroadcastChannel(t *testing.T) {
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeUserReader{byID: map[uuid.UUID]*models.User{}})

	result := consumer.process(context.Background(), &pubsub.Message{
		Data: encodeMessage(t, Message{
			Channel: WardenAlertsChannel,
			Type:    enums.NotificationTypeSOS,
			Title:   "SOS alert",
			Body:    "a student needs help",
			Data:    map[string]string{"alert_id": "abc"},
		}),
	})

	assert.True(t, result.ack)
	require.Len(t, sender.sent, 1)
	push := sender.sent[0]
	assert.Equal(t, WardenAlertsChannel, push.Topic)
	assert.Empty(t, push.Token)
	assert.Equal(t, "SOS alert", push.Notification.Title)
	assert.Equal(t, string(enums.NotificationTypeSOS), push.Data["notification_type"])
	assert.Equal(t, "abc", push.Data["alert_id"])
}

func TestProcessDirectSendWhenDeviceTokenRegistered(t *testing.T) {
	token := "device-token-1"
	parent := &models.User{ID: uuid.New(), Role: enums.RoleParent, DeviceToken: &token}
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeUserReader{byID: map[uuid.UUID]*models.User{parent.ID: parent}})

	result := consumer.process(context.Background(), &pubsub.Message{
		Data: encodeMessage(t, Message{
			Channel: ParentAlertsChannel(parent.ID),
			Type:    enums.NotificationTypeLateEntry,
			Title:   "Late entry",
			Body:    "returned after the window closed",
		}),
	})

	assert.True(t, result.ack)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, token, sender.sent[0].Token)
	assert.Empty(t, sender.sent[0].Topic)
}

func TestProcessFallsBackToTopicWithoutToken(t *testing.T) {
	parent := &models.User{ID: uuid.New(), Role: enums.RoleParent}
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeUserReader{byID: map[uuid.UUID]*models.User{parent.ID: parent}})

	channel := ParentTrackingChannel(parent.ID)
	result := consumer.process(context.Background(), &pubsub.Message{
		Data: encodeMessage(t, Message{Channel: channel, Type: enums.NotificationTypeGeofence, Title: "t", Body: "b"}),
	})

	assert.True(t, result.ack)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, channel, sender.sent[0].Topic)
}

func TestProcessDropsMalformedPayloads(t *testing.T) {
	sender := &fakeSender{}
	consumer := testConsumer(sender, &fakeUserReader{byID: map[uuid.UUID]*models.User{}})

	result := consumer.process(context.Background(), &pubsub.Message{Data: []byte("not json")})
	assert.True(t, result.ack)
	assert.False(t, result.nack)

	result = consumer.process(context.Background(), &pubsub.Message{
		Data: encodeMessage(t, Message{Title: "no channel"}),
	})
	assert.True(t, result.ack)
	assert.Empty(t, sender.sent)
}

func TestProcessNacksOnSendFailure(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	consumer := testConsumer(sender, &fakeUserReader{byID: map[uuid.UUID]*models.User{}})

	result := consumer.process(context.Background(), &pubsub.Message{
		Data: encodeMessage(t, Message{Channel: WardenAlertsChannel, Title: "t", Body: "b"}),
	})
	assert.True(t, result.nack)
}

func TestChannelUser(t *testing.T) {
	id := uuid.New()

	for _, channel := range []string{
		UserChannel(id),
		ParentAlertsChannel(id),
		ParentTrackingChannel(id),
		StudentAlertsChannel(id),
	} {
		parsed, ok := ChannelUser(channel)
		require.True(t, ok, "channel %s", channel)
		assert.Equal(t, id, parsed, "channel %s", channel)
	}

	_, ok := ChannelUser(WardenAlertsChannel)
	assert.False(t, ok)

	_, ok = ChannelUser("user_not-a-uuid")
	assert.False(t, ok)
}
