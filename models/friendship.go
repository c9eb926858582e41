package models

import "time"

// PendingSide names one of the two pending collections of a user record.
type PendingSide int

const (
	PendingNone PendingSide = iota
	PendingSent
	PendingReceived
)

// FriendEdge is one side of a mutual friendship. Both sides share ID.
type FriendEdge struct {
	ID        string    `json:"_id"`
	FriendID  string    `json:"friend"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// FriendView is a FriendEdge with the counterpart resolved.
type FriendView struct {
	ID       string      `json:"_id"`
	Friend   UserSummary `json:"friend"`
	Messages []Message   `json:"messages"`
}
