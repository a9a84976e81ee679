package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"firebase.google.com/go/v4/messaging"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fcmSender is the slice of the Firebase messaging client the consumer uses.
type fcmSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type deviceTokenReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer drains the notifications subscription and delivers each message
// through Firebase Cloud Messaging. Per-user channels resolve to a direct
// device send when the user registered a token; everything else goes out as
// a topic send so subscribed devices fan in on the FCM side.
type Consumer struct {
	subscription *pubsub.Subscriber
	sender       fcmSender
	users        deviceTokenReader
	logg         *logger.Logger
}

// NewConsumer builds the push delivery consumer.
func NewConsumer(subscription *pubsub.Subscriber, sender fcmSender, users deviceTokenReader, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notifications subscription required")
	}
	if sender == nil {
		return nil, fmt.Errorf("fcm sender required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		sender:       sender,
		users:        users,
		logg:         logg,
	}, nil
}

// Run starts the delivery loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"channel":    msg.Attributes["channel"],
	})

	var message Message
	if err := json.Unmarshal(msg.Data, &message); err != nil {
		// malformed payloads never become deliverable; drop them
		c.logg.Error(logCtx, "failed to decode notification", err)
		return processResult{ack: true}
	}
	if message.Channel == "" {
		c.logg.Error(logCtx, "notification missing channel", fmt.Errorf("empty channel"))
		return processResult{ack: true}
	}

	if err := c.deliver(ctx, &message); err != nil {
		c.logg.Error(logCtx, "push delivery failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification delivered")
	return processResult{ack: true}
}

func (c *Consumer) deliver(ctx context.Context, message *Message) error {
	push := &messaging.Message{
		Notification: &messaging.Notification{
			Title: message.Title,
			Body:  message.Body,
		},
		Data: fcmData(message),
	}

	if token := c.resolveDeviceToken(ctx, message.Channel); token != "" {
		push.Token = token
	} else {
		push.Topic = message.Channel
	}

	_, err := c.sender.Send(ctx, push)
	return err
}

// resolveDeviceToken maps a per-user channel to the user's registered device
// token. A missing user or token falls back to the topic send.
func (c *Consumer) resolveDeviceToken(ctx context.Context, channel string) string {
	userID, ok := ChannelUser(channel)
	if !ok {
		return ""
	}
	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Warn(ctx, fmt.Sprintf("device token lookup failed for %s: %v", userID, err))
		}
		return ""
	}
	if user.DeviceToken == nil {
		return ""
	}
	return *user.DeviceToken
}

func fcmData(message *Message) map[string]string {
	data := make(map[string]string, len(message.Data)+1)
	for key, value := range message.Data {
		data[key] = value
	}
	data["notification_type"] = string(message.Type)
	return data
}
