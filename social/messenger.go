package social

import (
	"context"
	"strings"

	"friendbox/errs"
	"friendbox/models"
	"friendbox/notify"
)

// MessageResult carries the created message and the room (edge id) it was
// delivered to.
type MessageResult struct {
	Message models.Message
	Room    string
	Partial *errs.PartialWriteFailure
}

// SendMessage appends one message value to both sides of the sender's edge
// to recipientID, sender side first.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID, body string) (*MessageResult, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errs.Validation("message body is required")
	}

	sender, err := s.store.FetchUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	edge := sender.Edge(recipientID)
	if edge == nil {
		return nil, errs.NotFriends(senderID, recipientID)
	}

	msg := models.Message{
		ID:        s.newID(),
		From:      senderID,
		To:        recipientID,
		Body:      body,
		Timestamp: s.now(),
	}

	if err := s.store.AppendMessageToEdge(ctx, senderID, recipientID, msg); err != nil {
		if errs.IsKind(err, errs.KindEdgeNotFound) {
			return nil, errs.NotFriends(senderID, recipientID)
		}
		return nil, err
	}

	result := &MessageResult{Message: msg, Room: edge.ID}
	if err := s.store.AppendMessageToEdge(ctx, recipientID, senderID, msg); err != nil {
		result.Partial = s.partial("send_message", senderID, recipientID, err)
	}

	s.publish(ctx, notify.ChatMessageEvent(edge.ID, msg))
	return result, nil
}

// Thread is one user's side of a friendship thread.
type Thread struct {
	EdgeID   string           `json:"_id"`
	Friend   string           `json:"friend"`
	Messages []models.Message `json:"messages"`
}

// Thread returns userID's copy of the thread shared with counterpartID.
func (s *Service) Thread(ctx context.Context, userID, counterpartID string) (*Thread, error) {
	u, err := s.store.FetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	edge := u.Edge(counterpartID)
	if edge == nil {
		return nil, errs.NotFriends(userID, counterpartID)
	}
	messages := edge.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	return &Thread{EdgeID: edge.ID, Friend: counterpartID, Messages: messages}, nil
}

// Rooms lists the edge ids of userID's friendships. Realtime clients join one
// room per edge.
func (s *Service) Rooms(ctx context.Context, userID string) ([]string, error) {
	u, err := s.store.FetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rooms := make([]string, 0, len(u.Friends))
	for _, edge := range u.Friends {
		rooms = append(rooms, edge.ID)
	}
	return rooms, nil
}
