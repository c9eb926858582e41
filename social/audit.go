package social

import (
	"context"
	"fmt"

	"friendbox/models"
)

// Violation names a broken cross-record invariant between two users.
type Violation struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// PairReport compares the two records of a pair. Repair is left to an
// operator; nothing here writes.
type PairReport struct {
	UserID     string      `json:"userId"`
	OtherID    string      `json:"otherId"`
	UserState  State       `json:"userState"`
	OtherState State       `json:"otherState"`
	Violations []Violation `json:"violations"`
}

func (r *PairReport) Consistent() bool {
	return len(r.Violations) == 0
}

// CheckPair reads both records and reports every place where they disagree,
// e.g. after a partial write.
func (s *Service) CheckPair(ctx context.Context, userID, otherID string) (*PairReport, error) {
	a, err := s.store.FetchUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.FetchUser(ctx, otherID)
	if err != nil {
		return nil, err
	}

	r := &PairReport{
		UserID:     userID,
		OtherID:    otherID,
		UserState:  Classify(a, otherID),
		OtherState: Classify(b, userID),
		Violations: []Violation{},
	}
	add := func(rule, format string, args ...interface{}) {
		r.Violations = append(r.Violations, Violation{Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	if a.HasSentRequest(b.ID) != b.HasReceivedRequest(a.ID) {
		add("pending_symmetry", "request %s -> %s recorded on one side only", a.ID, b.ID)
	}
	if b.HasSentRequest(a.ID) != a.HasReceivedRequest(b.ID) {
		add("pending_symmetry", "request %s -> %s recorded on one side only", b.ID, a.ID)
	}

	ea, eb := a.Edge(b.ID), b.Edge(a.ID)
	switch {
	case ea != nil && eb == nil:
		add("friendship_symmetry", "%s has an edge to %s but not the reverse", a.ID, b.ID)
	case ea == nil && eb != nil:
		add("friendship_symmetry", "%s has an edge to %s but not the reverse", b.ID, a.ID)
	case ea != nil && eb != nil && ea.ID != eb.ID:
		add("friendship_symmetry", "edge ids differ: %s vs %s", ea.ID, eb.ID)
	}

	for _, u := range []*models.User{a, b} {
		other := b.ID
		if u == b {
			other = a.ID
		}
		if u.Edge(other) != nil && (u.HasSentRequest(other) || u.HasReceivedRequest(other)) {
			add("exclusion", "%s holds both an edge and a pending request for %s", u.ID, other)
		}
	}

	if ea != nil && eb != nil {
		checkThreads(ea.Messages, eb.Messages, a.ID, b.ID, add)
	}
	return r, nil
}

func checkThreads(ta, tb []models.Message, aID, bID string, add func(rule, format string, args ...interface{})) {
	n := len(ta)
	if len(tb) < n {
		n = len(tb)
	}
	for i := 0; i < n; i++ {
		if !ta[i].Equal(tb[i]) {
			add("thread_mirroring", "threads diverge at message %d", i)
			return
		}
	}
	switch {
	case len(ta) > len(tb):
		add("thread_mirroring", "%s is missing %d trailing message(s) held by %s", bID, len(ta)-len(tb), aID)
	case len(tb) > len(ta):
		add("thread_mirroring", "%s is missing %d trailing message(s) held by %s", aID, len(tb)-len(ta), bID)
	}
}
