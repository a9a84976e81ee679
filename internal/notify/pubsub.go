package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/Yashop965/CamPass/pkg/logger"
	"go.uber.org/multierr"
)

const defaultPublishTimeout = 10 * time.Second

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// Dispatcher publishes notification messages to the notifications topic.
// The notify-worker consumes them and pushes to devices.
type Dispatcher struct {
	pub  publisher
	logg *logger.Logger
}

// NewDispatcher wires a Pub/Sub backed Notifier.
func NewDispatcher(pub *gcppubsub.Publisher, logg *logger.Logger) (*Dispatcher, error) {
	if pub == nil {
		return nil, fmt.Errorf("notifications publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{pub: newGCPPublisher(pub), logg: logg}, nil
}

// Publish sends each message to the topic and combines per-message failures.
// Callers log the combined error; a failed push never fails the workflow that
// produced it.
func (d *Dispatcher) Publish(ctx context.Context, msgs ...Message) error {
	var errs []error
	for _, msg := range msgs {
		if err := d.publishOne(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", msg.Channel, err))
		}
	}
	return multierr.Combine(errs...)
}

func (d *Dispatcher) publishOne(ctx context.Context, msg Message) error {
	if msg.Channel == "" {
		return errors.New("channel required")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := d.pub.Publish(publishCtx, &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"channel":           msg.Channel,
			"notification_type": string(msg.Type),
			"created_at":        msg.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}
	return nil
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
