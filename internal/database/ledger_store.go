package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/smarttransit/route-ledger/internal/models"
)

const undefinedTable = "42P01"

// ledgerSchema creates the ledger tables. Seat and booking references are
// not foreign keys; integrity is owned by the reservation ledger.
var ledgerSchema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_users (
		user_id        TEXT PRIMARY KEY,
		name           TEXT NOT NULL DEFAULT '',
		email          TEXT NOT NULL DEFAULT '',
		booking_ids    TEXT[] NOT NULL DEFAULT '{}',
		total_bookings INTEGER NOT NULL DEFAULT 0,
		total_spent    NUMERIC(12,2) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_seats (
		seat_id    TEXT PRIMARY KEY,
		status     TEXT NOT NULL,
		user_id    TEXT NOT NULL DEFAULT '',
		route_id   INTEGER NOT NULL,
		booking_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_seats_route ON ledger_seats (route_id)`,
	`CREATE TABLE IF NOT EXISTS ledger_bookings (
		booking_id  TEXT PRIMARY KEY,
		route_id    INTEGER NOT NULL,
		route_info  TEXT NOT NULL DEFAULT '',
		user_id     TEXT NOT NULL,
		seat_ids    TEXT[] NOT NULL DEFAULT '{}',
		total_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL
	)`,
}

type userRow struct {
	UserID        string             `db:"user_id"`
	Name          string             `db:"name"`
	Email         string             `db:"email"`
	BookingIDs    models.StringArray `db:"booking_ids"`
	TotalBookings int                `db:"total_bookings"`
	TotalSpent    float64            `db:"total_spent"`
}

type bookingRow struct {
	BookingID  string             `db:"booking_id"`
	RouteID    int                `db:"route_id"`
	RouteInfo  string             `db:"route_info"`
	UserID     string             `db:"user_id"`
	SeatIDs    models.StringArray `db:"seat_ids"`
	TotalPrice float64            `db:"total_price"`
	CreatedAt  time.Time          `db:"created_at"`
	Status     string             `db:"status"`
}

// LedgerStore persists ledger collections in PostgreSQL. Every save
// replaces the whole collection inside one transaction.
type LedgerStore struct {
	db DB
}

// NewLedgerStore creates a new PostgreSQL ledger store
func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Migrate creates the ledger tables if they do not exist
func (s *LedgerStore) Migrate(ctx context.Context) error {
	for _, stmt := range ledgerSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate ledger schema: %w", err)
		}
	}
	return nil
}

// LoadUsers loads every user
func (s *LedgerStore) LoadUsers(ctx context.Context) ([]*models.User, error) {
	var rows []userRow
	query := `
		SELECT user_id, name, email, booking_ids, total_bookings, total_spent
		FROM ledger_users
		ORDER BY user_id
	`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		if isUndefinedTable(err) {
			return []*models.User{}, nil
		}
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	users := make([]*models.User, 0, len(rows))
	for _, r := range rows {
		ids := []string(r.BookingIDs)
		if ids == nil {
			ids = []string{}
		}
		users = append(users, &models.User{
			UserID:        r.UserID,
			Name:          r.Name,
			Email:         r.Email,
			BookingIDs:    ids,
			TotalBookings: r.TotalBookings,
			TotalSpent:    r.TotalSpent,
		})
	}
	return users, nil
}

// SaveUsers replaces every user
func (s *LedgerStore) SaveUsers(ctx context.Context, users []*models.User) error {
	query := `
		INSERT INTO ledger_users (user_id, name, email, booking_ids, total_bookings, total_spent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	return s.replace(ctx, "ledger_users", len(users), func(i int) (string, []interface{}) {
		u := users[i]
		return query, []interface{}{
			u.UserID, u.Name, u.Email, pq.Array(u.BookingIDs), u.TotalBookings, models.RoundMoney(u.TotalSpent),
		}
	})
}

// LoadSeats loads every seat
func (s *LedgerStore) LoadSeats(ctx context.Context) ([]*models.Seat, error) {
	var rows []models.Seat
	query := `
		SELECT seat_id, status, user_id, route_id, booking_id
		FROM ledger_seats
		ORDER BY seat_id
	`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		if isUndefinedTable(err) {
			return []*models.Seat{}, nil
		}
		return nil, fmt.Errorf("failed to load seats: %w", err)
	}

	seats := make([]*models.Seat, 0, len(rows))
	for i := range rows {
		seat := rows[i]
		seat.Status = models.ParseSeatStatus(string(seat.Status))
		seats = append(seats, &seat)
	}
	return seats, nil
}

// SaveSeats replaces every seat
func (s *LedgerStore) SaveSeats(ctx context.Context, seats []*models.Seat) error {
	query := `
		INSERT INTO ledger_seats (seat_id, status, user_id, route_id, booking_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	return s.replace(ctx, "ledger_seats", len(seats), func(i int) (string, []interface{}) {
		seat := seats[i]
		return query, []interface{}{
			seat.SeatID, string(seat.Status), seat.UserID, seat.RouteID, seat.BookingID,
		}
	})
}

// LoadBookings loads every booking
func (s *LedgerStore) LoadBookings(ctx context.Context) ([]*models.Booking, error) {
	var rows []bookingRow
	query := `
		SELECT booking_id, route_id, route_info, user_id, seat_ids, total_price, created_at, status
		FROM ledger_bookings
		ORDER BY created_at, booking_id
	`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		if isUndefinedTable(err) {
			return []*models.Booking{}, nil
		}
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	bookings := make([]*models.Booking, 0, len(rows))
	for _, r := range rows {
		seatIDs := []string(r.SeatIDs)
		if seatIDs == nil {
			seatIDs = []string{}
		}
		bookings = append(bookings, &models.Booking{
			BookingID:  r.BookingID,
			RouteID:    r.RouteID,
			RouteInfo:  r.RouteInfo,
			UserID:     r.UserID,
			SeatIDs:    seatIDs,
			TotalPrice: r.TotalPrice,
			Timestamp:  r.CreatedAt.UTC(),
			Status:     models.ParseBookingStatus(r.Status),
		})
	}
	return bookings, nil
}

// SaveBookings replaces every booking
func (s *LedgerStore) SaveBookings(ctx context.Context, bookings []*models.Booking) error {
	query := `
		INSERT INTO ledger_bookings (booking_id, route_id, route_info, user_id, seat_ids, total_price, created_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	return s.replace(ctx, "ledger_bookings", len(bookings), func(i int) (string, []interface{}) {
		b := bookings[i]
		return query, []interface{}{
			b.BookingID, b.RouteID, b.RouteInfo, b.UserID, pq.Array(b.SeatIDs),
			models.RoundMoney(b.TotalPrice), b.Timestamp.UTC(), string(b.Status),
		}
	})
}

// replace deletes every row of table and inserts n rows built by row, in one transaction
func (s *LedgerStore) replace(ctx context.Context, table string, n int, row func(i int) (string, []interface{})) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	for i := 0; i < n; i++ {
		query, args := row(i)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == undefinedTable
}
