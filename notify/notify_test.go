package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"friendbox/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	var got []Kind
	ok := PublisherFunc(func(_ context.Context, evt Event) error {
		got = append(got, evt.Kind)
		return nil
	})
	failing := PublisherFunc(func(context.Context, Event) error {
		return errors.New("down")
	})

	err := Fanout{ok, failing, ok}.Publish(context.Background(), FriendActivityEvent())
	assert.EqualError(t, err, "down")
	assert.Equal(t, []Kind{FriendActivity, FriendActivity}, got)

	assert.NoError(t, Fanout{ok}.Publish(context.Background(), FriendActivityEvent()))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "friendbox.friend_activity", Subject(FriendActivityEvent()))
	assert.Equal(t, "friendbox.chat_message.edge-1",
		Subject(ChatMessageEvent("edge-1", models.Message{})))
}

func TestDecodeEventKeepsPayloadRaw(t *testing.T) {
	msg := models.Message{ID: "m1", From: "1", To: "2", Body: "hi", Timestamp: time.Unix(0, 0).UTC()}
	data, err := json.Marshal(ChatMessageEvent("edge-1", msg))
	require.NoError(t, err)

	evt, err := decodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, ChatMessage, evt.Kind)
	assert.Equal(t, "edge-1", evt.Room)

	var decoded models.Message
	require.NoError(t, json.Unmarshal(evt.Payload.(json.RawMessage), &decoded))
	assert.True(t, msg.Equal(decoded))
}

func TestDecodeEventBroadcastHasNoPayload(t *testing.T) {
	data, err := json.Marshal(FriendActivityEvent())
	require.NoError(t, err)

	evt, err := decodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, FriendActivity, evt.Kind)
	assert.Empty(t, evt.Room)
	assert.Nil(t, evt.Payload)
}

func TestDecodeEventRejectsMissingKind(t *testing.T) {
	_, err := decodeEvent([]byte(`{"room":"x"}`))
	assert.Error(t, err)
}
