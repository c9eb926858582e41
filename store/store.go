// Package store holds the user-record backends: an in-process one, MySQL
// and MongoDB. All of them satisfy social.Store and social.Directory.
package store

import (
	"context"
	"strings"

	"friendbox/errs"
	"friendbox/models"
)

var ErrUsernameTaken = errs.Validation("username already exists")

// NormalizeHandle returns the stored form of a username. Every backend saves
// and looks up handles in this form, so lookups are case-insensitive.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Accounts is the registration surface shared by every backend.
type Accounts interface {
	CreateUser(ctx context.Context, u *models.User) error
	FetchUserByHandle(ctx context.Context, handle string) (*models.User, error)
}
