package notify

import (
	"context"
	"errors"

	"friendbox/models"
)

// Kind identifies a realtime event.
type Kind string

const (
	// FriendActivity is broadcast to every client after a request is sent or
	// accepted. It carries no payload; clients re-fetch their own state.
	FriendActivity Kind = "friend_activity"
	// ChatMessage carries a models.Message to the room of one friend edge.
	ChatMessage Kind = "chat_message"
)

// Event is what the core hands to a Publisher. An empty Room means broadcast.
type Event struct {
	Kind    Kind        `json:"event"`
	Room    string      `json:"room,omitempty"`
	Payload interface{} `json:"data,omitempty"`
}

func FriendActivityEvent() Event {
	return Event{Kind: FriendActivity}
}

func ChatMessageEvent(room string, msg models.Message) Event {
	return Event{Kind: ChatMessage, Room: room, Payload: msg}
}

// Publisher delivers events best-effort. Having no subscribers is not an error.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt Event) error {
	var errList []error
	for _, p := range f {
		if err := p.Publish(ctx, evt); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt Event) error

func (fn PublisherFunc) Publish(ctx context.Context, evt Event) error {
	return fn(ctx, evt)
}
