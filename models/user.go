package models

import "time"

// User is one user record together with its three edge collections.
type User struct {
	ID               string       `json:"id"`
	Username         string       `json:"username"`
	FullName         string       `json:"fullName"`
	Avatar           string       `json:"profilePicture"`
	PasswordHash     string       `json:"-"`
	CreatedAt        time.Time    `json:"createdAt"`
	Friends          []FriendEdge `json:"friends"`
	SentRequests     []string     `json:"sentRequests"`
	ReceivedRequests []string     `json:"receivedRequests"`
}

// UserSummary is the public projection used wherever another user is referenced.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"profilePicture"`
}

// Profile is a user record with every counterpart id resolved to a summary.
// It never carries credential material.
type Profile struct {
	ID               string        `json:"id"`
	Username         string        `json:"username"`
	FullName         string        `json:"fullName"`
	Avatar           string        `json:"profilePicture"`
	CreatedAt        time.Time     `json:"createdAt"`
	Friends          []FriendView  `json:"friends"`
	SentRequests     []UserSummary `json:"sentRequests"`
	ReceivedRequests []UserSummary `json:"receivedRequests"`
}

func (u *User) ToSummary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

// Edge returns the user's edge to counterpartID, or nil.
func (u *User) Edge(counterpartID string) *FriendEdge {
	for i := range u.Friends {
		if u.Friends[i].FriendID == counterpartID {
			return &u.Friends[i]
		}
	}
	return nil
}

func (u *User) HasSentRequest(targetID string) bool {
	return contains(u.SentRequests, targetID)
}

func (u *User) HasReceivedRequest(requesterID string) bool {
	return contains(u.ReceivedRequests, requesterID)
}

// CounterpartIDs lists every user id referenced by the record, without duplicates.
func (u *User) CounterpartIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, f := range u.Friends {
		add(f.FriendID)
	}
	for _, id := range u.SentRequests {
		add(id)
	}
	for _, id := range u.ReceivedRequests {
		add(id)
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
