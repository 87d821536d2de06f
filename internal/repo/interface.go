package repo

import (
	"context"
	"errors"
	"io/fs"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for data persistence.
type Store interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error
	RunMigrations(ctx context.Context, filesystem fs.FS) error

	// Offers
	CreateOffer(ctx context.Context, offer Offer) (*Offer, error)
	ListOffers(ctx context.Context) ([]Offer, error)
	GetOffer(ctx context.Context, id int64) (*Offer, error)
	UpdateOfferField(ctx context.Context, id int64, column string, value any) (bool, error)
	DeleteOffer(ctx context.Context, id int64) (bool, error)

	// Traffic sources
	CreateSource(ctx context.Context, src TrafficSource) (*TrafficSource, error)
	ListSources(ctx context.Context) ([]TrafficSource, error)
	GetSource(ctx context.Context, id int64) (*TrafficSource, error)
	UpdateSourceField(ctx context.Context, id int64, column string, value any) (bool, error)
	DeleteSource(ctx context.Context, id int64) (bool, error)

	// Users
	CreateUser(ctx context.Context, userID int64, username, role string) error
	GetUserRole(ctx context.Context, userID int64) (string, error)
	SetUserRole(ctx context.Context, username, role string) (bool, error)
}
