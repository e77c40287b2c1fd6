// Package store defines the persistence contracts for users and items.
// Backends live in the subpackages and all speak in terms of internal/model
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitwise74/rental-api/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("invalid id format")
)

// DuplicateError is returned when a unique field collides with an existing record
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s, %v", e.Field, e.Err)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// NewID returns a fresh 24 char hex identifier. Every backend uses the same
// format so identifiers can be validated before hitting the store
func NewID() string {
	return primitive.NewObjectID().Hex()
}

func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// UpdateUser persists every mutable profile field of u, including the
	// privileged flags. Callers are responsible for filtering input
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error

	// SetOTP stores a code on the user with the given email and returns the
	// updated user. ErrNotFound if nobody has that email
	SetOTP(ctx context.Context, email, code string, expiresAt time.Time) (*model.User, error)
	// ConsumeOTP atomically clears the code, marks the email verified and
	// stores resetToken, but only while the stored code still equals code and
	// hasn't expired at now. ErrNotFound otherwise
	ConsumeOTP(ctx context.Context, id, code string, now time.Time, resetToken string) error
	// ClearExpiredOTPs drops every code that expired before now
	ClearExpiredOTPs(ctx context.Context, now time.Time) (int64, error)

	UserByResetToken(ctx context.Context, email, token string) (*model.User, error)
	// ReplacePassword swaps the digest and clears the reset token if the
	// stored token still equals token. ErrNotFound otherwise
	ReplacePassword(ctx context.Context, id, token, hash string) error
}

type ItemStore interface {
	CreateItem(ctx context.Context, i *model.Item) error
	ItemByID(ctx context.Context, id string) (*model.Item, error)
	// UpdateItem persists every mutable attribute of i. The owner is never written
	UpdateItem(ctx context.Context, i *model.Item) error
	DeleteItem(ctx context.Context, id string) error
	SetAvailability(ctx context.Context, id string, available bool) error

	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	ItemsByOwner(ctx context.Context, ownerID string) ([]model.Item, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)

	// SearchItems returns one page of matches, newest first, and the total
	// number of matches across all pages
	SearchItems(ctx context.Context, q ItemQuery) ([]model.Item, int64, error)
	// NearbyItems returns available items within q.Radius, nearest first
	NearbyItems(ctx context.Context, q NearQuery) ([]model.Item, error)
}

type Store interface {
	UserStore
	ItemStore
	Close(ctx context.Context) error
}
