package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/google/uuid"
)

// WardenAlertsChannel fans out to every warden device.
const WardenAlertsChannel = "warden_alerts"

// Message is a single push notification destined for one channel.
type Message struct {
	Channel   string                 `json:"channel"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]string      `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Notifier delivers messages to their channels. Implementations must treat
// delivery as best-effort; callers never block a workflow on the result.
type Notifier interface {
	Publish(ctx context.Context, msgs ...Message) error
}

// UserChannel addresses a single user's devices.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_%s", userID)
}

// ParentAlertsChannel addresses a parent's alert feed.
func ParentAlertsChannel(parentID uuid.UUID) string {
	return fmt.Sprintf("parent_%s_alerts", parentID)
}

// ParentTrackingChannel addresses a parent's live tracking feed.
func ParentTrackingChannel(parentID uuid.UUID) string {
	return fmt.Sprintf("parent_%s_tracking", parentID)
}

// StudentAlertsChannel addresses a student's alert feed.
func StudentAlertsChannel(studentID uuid.UUID) string {
	return fmt.Sprintf("student_%s_alerts", studentID)
}

// ChannelUser extracts the addressed user from a per-user channel name.
// Broadcast channels like warden_alerts have no single recipient.
func ChannelUser(channel string) (uuid.UUID, bool) {
	var raw string
	switch {
	case strings.HasPrefix(channel, "user_"):
		raw = strings.TrimPrefix(channel, "user_")
	case strings.HasPrefix(channel, "parent_"):
		raw = strings.TrimPrefix(channel, "parent_")
		raw = strings.TrimSuffix(raw, "_alerts")
		raw = strings.TrimSuffix(raw, "_tracking")
	case strings.HasPrefix(channel, "student_"):
		raw = strings.TrimPrefix(channel, "student_")
		raw = strings.TrimSuffix(raw, "_alerts")
	default:
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
