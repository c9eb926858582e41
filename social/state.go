package social

import (
	"fmt"

	"friendbox/errs"
	"friendbox/models"
)

// State is the relationship between an ordered pair of users, as seen from
// the first user's record.
type State int

const (
	StateNone State = iota
	StatePendingOut
	StatePendingIn
	StateFriends
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StatePendingOut:
		return "pending_out"
	case StatePendingIn:
		return "pending_in"
	case StateFriends:
		return "friends"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Transition int

const (
	TransitionSend Transition = iota
	TransitionAccept
)

func (t Transition) String() string {
	if t == TransitionAccept {
		return "accept"
	}
	return "send"
}

// Classify derives the state of (u, otherID) from u's record. An edge wins
// over any leftover pending entry.
func Classify(u *models.User, otherID string) State {
	switch {
	case u.Edge(otherID) != nil:
		return StateFriends
	case u.HasSentRequest(otherID):
		return StatePendingOut
	case u.HasReceivedRequest(otherID):
		return StatePendingIn
	}
	return StateNone
}

// Next returns the state reached by applying t in state from.
func Next(from State, t Transition) (State, error) {
	switch {
	case t == TransitionSend && from == StateNone:
		return StatePendingOut, nil
	case t == TransitionAccept && from == StatePendingIn:
		return StateFriends, nil
	}
	return from, errs.InvalidTransition(fmt.Sprintf("cannot %s a friend request in state %s", t, from))
}
