package social

import (
	"context"

	"friendbox/models"
)

// Store persists user records. Every method reads or mutates exactly one
// record and is atomic within it; nothing here spans two users.
type Store interface {
	FetchUser(ctx context.Context, userID string) (*models.User, error)
	FetchUserByHandle(ctx context.Context, handle string) (*models.User, error)

	// AddSentRequest appends targetID to the user's sent requests if absent
	// and returns the updated record.
	AddSentRequest(ctx context.Context, userID, targetID string) (*models.User, error)
	AddReceivedRequest(ctx context.Context, userID, requesterID string) error
	RemoveSentRequest(ctx context.Context, userID, targetID string) error
	RemoveReceivedRequest(ctx context.Context, userID, requesterID string) error

	// AddFriendEdge pushes edge onto the user's friends and, in the same
	// update, removes the counterpart from the pending collection named by
	// clear. It returns the updated record.
	AddFriendEdge(ctx context.Context, userID string, edge models.FriendEdge, clear models.PendingSide) (*models.User, error)

	// AppendMessageToEdge appends msg to the thread of the user's edge to
	// counterpartID, failing with errs.KindEdgeNotFound if there is none.
	AppendMessageToEdge(ctx context.Context, userID, counterpartID string, msg models.Message) error
}

// Directory resolves user ids to public summaries.
type Directory interface {
	Summaries(ctx context.Context, userIDs []string) (map[string]models.UserSummary, error)
}
