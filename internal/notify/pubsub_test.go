package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}

type fakePublisher struct {
	published []*gcppubsub.Message
	results   []fakePublishResult
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.published = append(f.published, msg)
	idx := len(f.published) - 1
	if idx < len(f.results) {
		return f.results[idx]
	}
	return fakePublishResult{}
}

func testDispatcher(pub publisher) *Dispatcher {
	return &Dispatcher{pub: pub, logg: logger.New(logger.Options{ServiceName: "test"})}
}

func TestDispatcherPublishEncodesMessage(t *testing.T) {
	pub := &fakePublisher{}
	d := testDispatcher(pub)
	studentID := uuid.New()

	err := d.Publish(context.Background(), Message{
		Channel: StudentAlertsChannel(studentID),
		Type:    enums.NotificationTypePassApproved,
		Title:   "Pass approved",
		Body:    "Your outing pass was approved",
		Data:    map[string]string{"pass_id": uuid.NewString()},
	})
	require.NoError(t, err)
	require.Len(t, pub.published, 1)

	msg := pub.published[0]
	require.Equal(t, StudentAlertsChannel(studentID), msg.Attributes["channel"])
	require.Equal(t, string(enums.NotificationTypePassApproved), msg.Attributes["notification_type"])
	require.NotEmpty(t, msg.Attributes["created_at"])

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	require.Equal(t, "Pass approved", decoded.Title)
	require.False(t, decoded.CreatedAt.IsZero())
}

func TestDispatcherPublishCombinesFailures(t *testing.T) {
	pub := &fakePublisher{
		results: []fakePublishResult{
			{err: errors.New("transient")},
			{},
		},
	}
	d := testDispatcher(pub)

	err := d.Publish(context.Background(),
		Message{Channel: WardenAlertsChannel, Type: enums.NotificationTypeLateEntry},
		Message{Channel: ParentAlertsChannel(uuid.New()), Type: enums.NotificationTypeLateEntry},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "transient")
	// the second message still went out
	require.Len(t, pub.published, 2)
}

func TestDispatcherRejectsEmptyChannel(t *testing.T) {
	pub := &fakePublisher{}
	d := testDispatcher(pub)

	err := d.Publish(context.Background(), Message{Type: enums.NotificationTypeSOS})
	require.Error(t, err)
	require.Empty(t, pub.published)
}

func TestChannelNames(t *testing.T) {
	id := uuid.MustParse("2ce0dbcf-9a2f-4c4b-9d3f-0a43c5d7aa11")
	require.Equal(t, "user_2ce0dbcf-9a2f-4c4b-9d3f-0a43c5d7aa11", UserChannel(id))
	require.Equal(t, "parent_2ce0dbcf-9a2f-4c4b-9d3f-0a43c5d7aa11_alerts", ParentAlertsChannel(id))
	require.Equal(t, "parent_2ce0dbcf-9a2f-4c4b-9d3f-0a43c5d7aa11_tracking", ParentTrackingChannel(id))
	require.Equal(t, "student_2ce0dbcf-9a2f-4c4b-9d3f-0a43c5d7aa11_alerts", StudentAlertsChannel(id))
	require.Equal(t, "warden_alerts", WardenAlertsChannel)
}
