package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"friendbox/errs"
	"friendbox/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contractStore interface {
	Accounts
	FetchUser(ctx context.Context, userID string) (*models.User, error)
	Summaries(ctx context.Context, userIDs []string) (map[string]models.UserSummary, error)
	AddSentRequest(ctx context.Context, userID, targetID string) (*models.User, error)
	AddReceivedRequest(ctx context.Context, userID, requesterID string) error
	RemoveSentRequest(ctx context.Context, userID, targetID string) error
	RemoveReceivedRequest(ctx context.Context, userID, requesterID string) error
	AddFriendEdge(ctx context.Context, userID string, edge models.FriendEdge, clear models.PendingSide) (*models.User, error)
	AppendMessageToEdge(ctx context.Context, userID, counterpartID string, msg models.Message) error
}

func newTestUser(t *testing.T, ctx context.Context, s contractStore, name string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		FullName:     name,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.CreateUser(ctx, u))
	return u
}

// runStoreContract exercises the single-record primitives every backend must honour.
func runStoreContract(t *testing.T, s contractStore) {
	ctx := context.Background()

	t.Run("create and lookup", func(t *testing.T) {
		u := newTestUser(t, ctx, s, "alice")

		got, err := s.FetchUserByHandle(ctx, u.Username)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		err = s.CreateUser(ctx, &models.User{ID: uuid.NewString(), Username: u.Username, PasswordHash: "x", CreatedAt: time.Now()})
		assert.True(t, errs.IsKind(err, errs.KindValidation))

		_, err = s.FetchUser(ctx, uuid.NewString())
		assert.True(t, errs.IsKind(err, errs.KindTargetNotFound))
		_, err = s.FetchUserByHandle(ctx, "nobody-"+uuid.NewString())
		assert.True(t, errs.IsKind(err, errs.KindTargetNotFound))
	})

	t.Run("handles are stored lowercase and matched case-insensitively", func(t *testing.T) {
		u := &models.User{
			ID:           uuid.NewString(),
			Username:     "Mixed-" + strings.ToUpper(uuid.NewString()[:8]),
			PasswordHash: "hash",
			CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		}
		handle := u.Username
		require.NoError(t, s.CreateUser(ctx, u))
		assert.Equal(t, strings.ToLower(handle), u.Username)

		for _, h := range []string{handle, strings.ToLower(handle), strings.ToUpper(handle)} {
			got, err := s.FetchUserByHandle(ctx, h)
			require.NoError(t, err, h)
			assert.Equal(t, u.ID, got.ID)
			assert.Equal(t, strings.ToLower(handle), got.Username)
		}

		err := s.CreateUser(ctx, &models.User{ID: uuid.NewString(), Username: strings.ToUpper(handle), PasswordHash: "x", CreatedAt: time.Now()})
		assert.True(t, errs.IsKind(err, errs.KindValidation))
	})

	t.Run("pending requests are sets with idempotent removal", func(t *testing.T) {
		a := newTestUser(t, ctx, s, "a")
		b := newTestUser(t, ctx, s, "b")

		updated, err := s.AddSentRequest(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID}, updated.SentRequests)

		updated, err = s.AddSentRequest(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID}, updated.SentRequests)

		require.NoError(t, s.AddReceivedRequest(ctx, b.ID, a.ID))
		require.NoError(t, s.AddReceivedRequest(ctx, b.ID, a.ID))
		got, err := s.FetchUser(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID}, got.ReceivedRequests)

		require.NoError(t, s.RemoveSentRequest(ctx, a.ID, b.ID))
		require.NoError(t, s.RemoveSentRequest(ctx, a.ID, b.ID))
		require.NoError(t, s.RemoveReceivedRequest(ctx, b.ID, a.ID))
		require.NoError(t, s.RemoveReceivedRequest(ctx, b.ID, "never-there"))

		got, err = s.FetchUser(ctx, a.ID)
		require.NoError(t, err)
		assert.Empty(t, got.SentRequests)

		err = s.AddReceivedRequest(ctx, uuid.NewString(), a.ID)
		assert.True(t, errs.IsKind(err, errs.KindTargetNotFound))
	})

	t.Run("friend edge clears pending and rejects duplicates", func(t *testing.T) {
		a := newTestUser(t, ctx, s, "a")
		b := newTestUser(t, ctx, s, "b")
		_, err := s.AddSentRequest(ctx, a.ID, b.ID)
		require.NoError(t, err)

		edge := models.FriendEdge{ID: uuid.NewString(), FriendID: b.ID, CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
		updated, err := s.AddFriendEdge(ctx, a.ID, edge, models.PendingSent)
		require.NoError(t, err)
		require.Len(t, updated.Friends, 1)
		assert.Equal(t, edge.ID, updated.Friends[0].ID)
		assert.Equal(t, b.ID, updated.Friends[0].FriendID)
		assert.Empty(t, updated.SentRequests)

		_, err = s.AddFriendEdge(ctx, a.ID, edge, models.PendingSent)
		assert.True(t, errs.IsKind(err, errs.KindInvalidTransition))

		_, err = s.AddFriendEdge(ctx, a.ID, models.FriendEdge{ID: uuid.NewString(), FriendID: a.ID}, models.PendingNone)
		assert.True(t, errs.IsKind(err, errs.KindInvalidTransition))
	})

	t.Run("messages append to the matching edge only", func(t *testing.T) {
		a := newTestUser(t, ctx, s, "a")
		b := newTestUser(t, ctx, s, "b")
		c := newTestUser(t, ctx, s, "c")
		now := time.Now().UTC().Truncate(time.Millisecond)
		_, err := s.AddFriendEdge(ctx, a.ID, models.FriendEdge{ID: uuid.NewString(), FriendID: b.ID, CreatedAt: now}, models.PendingNone)
		require.NoError(t, err)
		_, err = s.AddFriendEdge(ctx, a.ID, models.FriendEdge{ID: uuid.NewString(), FriendID: c.ID, CreatedAt: now}, models.PendingNone)
		require.NoError(t, err)

		first := models.Message{ID: uuid.NewString(), From: a.ID, To: b.ID, Body: "hi", Timestamp: now}
		second := models.Message{ID: uuid.NewString(), From: b.ID, To: a.ID, Body: "hello", Timestamp: now.Add(time.Second)}
		require.NoError(t, s.AppendMessageToEdge(ctx, a.ID, b.ID, first))
		require.NoError(t, s.AppendMessageToEdge(ctx, a.ID, b.ID, second))

		got, err := s.FetchUser(ctx, a.ID)
		require.NoError(t, err)
		thread := got.Edge(b.ID).Messages
		require.Len(t, thread, 2)
		assert.True(t, first.Equal(thread[0]))
		assert.True(t, second.Equal(thread[1]))
		assert.Empty(t, got.Edge(c.ID).Messages)

		err = s.AppendMessageToEdge(ctx, b.ID, a.ID, first)
		assert.True(t, errs.IsKind(err, errs.KindEdgeNotFound))
	})

	t.Run("summaries skip unknown ids", func(t *testing.T) {
		a := newTestUser(t, ctx, s, "a")

		sums, err := s.Summaries(ctx, []string{a.ID, uuid.NewString()})
		require.NoError(t, err)
		require.Len(t, sums, 1)
		assert.Equal(t, a.Username, sums[a.ID].Username)
		assert.Equal(t, "a", sums[a.ID].FullName)

		sums, err = s.Summaries(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, sums)
	})
}
