package store

import (
	"context"
	"sync"

	"friendbox/errs"
	"friendbox/models"
)

// Memory keeps user records in process. Each record has its own lock, so
// operations are atomic per record and never across two.
type Memory struct {
	mu       sync.RWMutex
	records  map[string]*memRecord
	byHandle map[string]string
}

type memRecord struct {
	mu   sync.Mutex
	user models.User
}

func NewMemory() *Memory {
	return &Memory{
		records:  make(map[string]*memRecord),
		byHandle: make(map[string]string),
	}
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	u.Username = NormalizeHandle(u.Username)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byHandle[u.Username]; ok {
		return ErrUsernameTaken
	}
	if _, ok := m.records[u.ID]; ok {
		return errs.Validation("user id already exists")
	}
	m.records[u.ID] = &memRecord{user: cloneUser(u)}
	m.byHandle[u.Username] = u.ID
	return nil
}

func (m *Memory) record(id string) (*memRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, errs.TargetNotFound(id)
	}
	return rec, nil
}

// update runs fn with the record locked and returns a copy of the result.
func (m *Memory) update(id string, fn func(u *models.User) error) (*models.User, error) {
	rec, err := m.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := fn(&rec.user); err != nil {
		return nil, err
	}
	out := cloneUser(&rec.user)
	return &out, nil
}

func (m *Memory) FetchUser(_ context.Context, userID string) (*models.User, error) {
	return m.update(userID, func(*models.User) error { return nil })
}

func (m *Memory) FetchUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	m.mu.RLock()
	id, ok := m.byHandle[NormalizeHandle(handle)]
	m.mu.RUnlock()
	if !ok {
		return nil, errs.TargetNotFound(handle)
	}
	return m.FetchUser(ctx, id)
}

func (m *Memory) Summaries(_ context.Context, userIDs []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(userIDs))
	for _, id := range userIDs {
		rec, err := m.record(id)
		if err != nil {
			continue
		}
		rec.mu.Lock()
		out[id] = rec.user.ToSummary()
		rec.mu.Unlock()
	}
	return out, nil
}

func (m *Memory) AddSentRequest(_ context.Context, userID, targetID string) (*models.User, error) {
	return m.update(userID, func(u *models.User) error {
		u.SentRequests = appendIfAbsent(u.SentRequests, targetID)
		return nil
	})
}

func (m *Memory) AddReceivedRequest(_ context.Context, userID, requesterID string) error {
	_, err := m.update(userID, func(u *models.User) error {
		u.ReceivedRequests = appendIfAbsent(u.ReceivedRequests, requesterID)
		return nil
	})
	return err
}

func (m *Memory) RemoveSentRequest(_ context.Context, userID, targetID string) error {
	_, err := m.update(userID, func(u *models.User) error {
		u.SentRequests = remove(u.SentRequests, targetID)
		return nil
	})
	return err
}

func (m *Memory) RemoveReceivedRequest(_ context.Context, userID, requesterID string) error {
	_, err := m.update(userID, func(u *models.User) error {
		u.ReceivedRequests = remove(u.ReceivedRequests, requesterID)
		return nil
	})
	return err
}

func (m *Memory) AddFriendEdge(_ context.Context, userID string, edge models.FriendEdge, clear models.PendingSide) (*models.User, error) {
	return m.update(userID, func(u *models.User) error {
		if edge.FriendID == userID {
			return errs.InvalidTransition("a user cannot befriend themselves")
		}
		if u.Edge(edge.FriendID) != nil {
			return errs.InvalidTransition("edge already exists")
		}
		edge.Messages = append([]models.Message(nil), edge.Messages...)
		u.Friends = append(u.Friends, edge)
		switch clear {
		case models.PendingSent:
			u.SentRequests = remove(u.SentRequests, edge.FriendID)
		case models.PendingReceived:
			u.ReceivedRequests = remove(u.ReceivedRequests, edge.FriendID)
		}
		return nil
	})
}

func (m *Memory) AppendMessageToEdge(_ context.Context, userID, counterpartID string, msg models.Message) error {
	_, err := m.update(userID, func(u *models.User) error {
		edge := u.Edge(counterpartID)
		if edge == nil {
			return errs.EdgeNotFound(userID, counterpartID)
		}
		edge.Messages = append(edge.Messages, msg)
		return nil
	})
	return err
}

func appendIfAbsent(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneUser(u *models.User) models.User {
	out := *u
	out.SentRequests = append([]string(nil), u.SentRequests...)
	out.ReceivedRequests = append([]string(nil), u.ReceivedRequests...)
	out.Friends = make([]models.FriendEdge, len(u.Friends))
	for i, edge := range u.Friends {
		edge.Messages = append([]models.Message(nil), edge.Messages...)
		out.Friends[i] = edge
	}
	return out
}
