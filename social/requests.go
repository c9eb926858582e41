package social

import (
	"context"

	"friendbox/errs"
	"friendbox/models"
	"friendbox/notify"
)

// SendRequest records a pending request from requesterID to the user owning
// handle. Preconditions are checked against the requester's record before
// any write. The sent side is written first and its result is returned even
// if the received side then fails.
func (s *Service) SendRequest(ctx context.Context, requesterID, handle string) (*TransitionResult, error) {
	target, err := s.store.FetchUserByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if target.ID == requesterID {
		return nil, errs.InvalidTransition("cannot send a friend request to yourself")
	}

	requester, err := s.store.FetchUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	state := Classify(requester, target.ID)
	if _, err := Next(state, TransitionSend); err != nil {
		if state == StateFriends {
			return nil, errs.InvalidTransition("user is already a friend")
		}
		return nil, errs.InvalidTransition("pending request already exists")
	}

	updated, err := s.store.AddSentRequest(ctx, requesterID, target.ID)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{}
	if err := s.store.AddReceivedRequest(ctx, target.ID, requesterID); err != nil {
		result.Partial = s.partial("send_request", requesterID, target.ID, err)
	}

	s.publish(ctx, notify.FriendActivityEvent())

	result.User, err = s.project(ctx, updated)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AcceptRequest turns requesterID's pending request to acceptorID into a
// friendship with a fresh shared edge id. The acceptor's record is re-read
// right before writing; if the request is gone, or the requester already
// holds an edge to the acceptor, the call fails with errs.KindStaleRequest
// and writes nothing. Of two concurrent accepts only one passes step (i).
func (s *Service) AcceptRequest(ctx context.Context, acceptorID, requesterID string) (*TransitionResult, error) {
	if acceptorID == requesterID {
		return nil, errs.InvalidTransition("cannot accept a friend request from yourself")
	}
	requester, err := s.store.FetchUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.Edge(acceptorID) != nil {
		return nil, errs.StaleRequest(requesterID)
	}

	acceptor, err := s.store.FetchUser(ctx, acceptorID)
	if err != nil {
		return nil, err
	}
	if _, err := Next(Classify(acceptor, requesterID), TransitionAccept); err != nil {
		return nil, errs.StaleRequest(requesterID)
	}

	edgeID := s.newID()
	now := s.now()

	_, err = s.store.AddFriendEdge(ctx, requesterID, models.FriendEdge{
		ID:        edgeID,
		FriendID:  acceptorID,
		CreatedAt: now,
	}, models.PendingSent)
	if errs.IsKind(err, errs.KindInvalidTransition) {
		return nil, errs.StaleRequest(requesterID)
	}
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{}
	updated, err := s.store.AddFriendEdge(ctx, acceptorID, models.FriendEdge{
		ID:        edgeID,
		FriendID:  requesterID,
		CreatedAt: now,
	}, models.PendingReceived)
	if err != nil {
		result.Partial = s.partial("accept_request", requesterID, acceptorID, err)
		if updated, err = s.store.FetchUser(ctx, acceptorID); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, notify.FriendActivityEvent())

	result.User, err = s.project(ctx, updated)
	if err != nil {
		return nil, err
	}
	return result, nil
}
