package social

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"friendbox/models"
	"friendbox/notify"
	"friendbox/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// recorder keeps every published event in order.
type recorder struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, evt notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return r.err
}

func (r *recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

// flakyStore fails selected single-record writes, keyed by method and user id.
type flakyStore struct {
	*store.Memory
	mu   sync.Mutex
	fail map[string]error
}

func (f *flakyStore) failOn(method, userID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method+":"+userID] = err
}

func (f *flakyStore) injected(method, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[method+":"+userID]
}

func (f *flakyStore) AddSentRequest(ctx context.Context, userID, targetID string) (*models.User, error) {
	if err := f.injected("AddSentRequest", userID); err != nil {
		return nil, err
	}
	return f.Memory.AddSentRequest(ctx, userID, targetID)
}

func (f *flakyStore) AddReceivedRequest(ctx context.Context, userID, requesterID string) error {
	if err := f.injected("AddReceivedRequest", userID); err != nil {
		return err
	}
	return f.Memory.AddReceivedRequest(ctx, userID, requesterID)
}

func (f *flakyStore) AddFriendEdge(ctx context.Context, userID string, edge models.FriendEdge, clear models.PendingSide) (*models.User, error) {
	if err := f.injected("AddFriendEdge", userID); err != nil {
		return nil, err
	}
	return f.Memory.AddFriendEdge(ctx, userID, edge, clear)
}

func (f *flakyStore) AppendMessageToEdge(ctx context.Context, userID, counterpartID string, msg models.Message) error {
	if err := f.injected("AppendMessageToEdge", userID); err != nil {
		return err
	}
	return f.Memory.AppendMessageToEdge(ctx, userID, counterpartID, msg)
}

type fixture struct {
	ctx   context.Context
	store *flakyStore
	pub   *recorder
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	fs := &flakyStore{Memory: mem, fail: make(map[string]error)}
	pub := &recorder{}

	var seq int64
	svc := NewService(fs, mem, pub, zap.NewNop(),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			return fmt.Sprintf("id-%d", atomic.AddInt64(&seq, 1))
		}),
	)

	f := &fixture{ctx: context.Background(), store: fs, pub: pub, svc: svc}
	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, mem.CreateUser(f.ctx, &models.User{
			ID:           name[:1],
			Username:     name,
			FullName:     name,
			PasswordHash: "hash",
			CreatedAt:    testNow,
		}))
	}
	return f
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.store.FetchUser(f.ctx, id)
	require.NoError(t, err)
	return u
}

// befriend runs a clean send and accept between a and b.
func (f *fixture) befriend(t *testing.T, requesterID, handle, acceptorID string) {
	t.Helper()
	res, err := f.svc.SendRequest(f.ctx, requesterID, handle)
	require.NoError(t, err)
	require.Nil(t, res.Partial)
	res, err = f.svc.AcceptRequest(f.ctx, acceptorID, requesterID)
	require.NoError(t, err)
	require.Nil(t, res.Partial)
}
