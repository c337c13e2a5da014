// Package storage is the I/O boundary for ledger state: the mutable
// collections (users, seats, bookings) behind the Store interface and the
// read-only route segment fixture.
package storage

import (
	"context"
	"fmt"

	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/repository"
)

// Store persists the three mutable collections. Load of an absent
// collection returns it empty. Save fully overwrites the collection.
type Store interface {
	LoadUsers(ctx context.Context) ([]*models.User, error)
	SaveUsers(ctx context.Context, users []*models.User) error

	LoadSeats(ctx context.Context) ([]*models.Seat, error)
	SaveSeats(ctx context.Context, seats []*models.Seat) error

	LoadBookings(ctx context.Context) ([]*models.Booking, error)
	SaveBookings(ctx context.Context, bookings []*models.Booking) error
}

// RouteSource provides the route segment fixture
type RouteSource interface {
	LoadRoutes(ctx context.Context) ([]*models.RouteSegment, error)
}

// LoadLedger reconstructs a full repository from the store and the route fixture
func LoadLedger(ctx context.Context, store Store, routes RouteSource) (*repository.LedgerRepository, error) {
	repo := repository.NewLedgerRepository()

	segments, err := routes.LoadRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}
	for _, s := range segments {
		repo.PutRoute(s)
	}

	users, err := store.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		repo.PutUser(u)
	}

	seats, err := store.LoadSeats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}
	for _, s := range seats {
		repo.PutSeat(s)
	}

	bookings, err := store.LoadBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	for _, b := range bookings {
		repo.PutBooking(b)
	}

	return repo, nil
}
