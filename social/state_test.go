package social

import (
	"testing"

	"friendbox/errs"
	"friendbox/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	u := &models.User{
		ID:               "a",
		Friends:          []models.FriendEdge{{ID: "e1", FriendID: "b"}},
		SentRequests:     []string{"c", "b"},
		ReceivedRequests: []string{"d"},
	}

	assert.Equal(t, StateFriends, Classify(u, "b"))
	assert.Equal(t, StatePendingOut, Classify(u, "c"))
	assert.Equal(t, StatePendingIn, Classify(u, "d"))
	assert.Equal(t, StateNone, Classify(u, "e"))
}

func TestNext(t *testing.T) {
	cases := []struct {
		from  State
		t     Transition
		to    State
		valid bool
	}{
		{StateNone, TransitionSend, StatePendingOut, true},
		{StatePendingOut, TransitionSend, StatePendingOut, false},
		{StatePendingIn, TransitionSend, StatePendingIn, false},
		{StateFriends, TransitionSend, StateFriends, false},
		{StatePendingIn, TransitionAccept, StateFriends, true},
		{StateNone, TransitionAccept, StateNone, false},
		{StatePendingOut, TransitionAccept, StatePendingOut, false},
		{StateFriends, TransitionAccept, StateFriends, false},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"/"+tc.t.String(), func(t *testing.T) {
			to, err := Next(tc.from, tc.t)
			assert.Equal(t, tc.to, to)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errs.IsKind(err, errs.KindInvalidTransition))
			}
		})
	}
}

func TestStateMarshalText(t *testing.T) {
	b, err := StatePendingIn.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "pending_in", string(b))
	assert.Equal(t, "state(9)", State(9).String())
}
