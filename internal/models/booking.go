package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "Active"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// BookingIDPrefix prefixes every generated booking identifier
const BookingIDPrefix = "BK"

// ParseBookingStatus converts a stored status string. Unknown values map to Active.
func ParseBookingStatus(s string) BookingStatus {
	if BookingStatus(s) == BookingStatusCancelled {
		return BookingStatusCancelled
	}
	return BookingStatusActive
}

// Booking represents a confirmed, priced group of seats on one route segment
type Booking struct {
	BookingID  string        `json:"bookingID" db:"booking_id"`
	RouteID    int           `json:"routeID" db:"route_id"`
	RouteInfo  string        `json:"routeInfo" db:"route_info"`
	UserID     string        `json:"userID" db:"user_id"`
	SeatIDs    []string      `json:"seatIDs" db:"-"`
	TotalPrice float64       `json:"totalPrice" db:"total_price"`
	Timestamp  time.Time     `json:"timestamp" db:"created_at"`
	Status     BookingStatus `json:"status" db:"status"`
}

// FormatBookingID renders a booking counter value as an identifier
func FormatBookingID(seq int) string {
	return BookingIDPrefix + strconv.Itoa(seq)
}

// BookingSequence extracts the numeric suffix of a booking identifier.
// Identifiers without a numeric suffix report ok=false.
func BookingSequence(bookingID string) (int, bool) {
	digits := strings.TrimLeftFunc(bookingID, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CanBeCancelled checks if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status != BookingStatusCancelled
}

// Cancel cancels the booking
func (b *Booking) Cancel() error {
	if !b.CanBeCancelled() {
		return errors.New("booking already cancelled")
	}
	b.Status = BookingStatusCancelled
	return nil
}

// Clone returns a deep copy of the booking
func (b *Booking) Clone() *Booking {
	c := *b
	c.SeatIDs = append([]string{}, b.SeatIDs...)
	return &c
}

// BookSeatsRequest represents the request to book seats on a route
type BookSeatsRequest struct {
	RouteID      FlexNumber `json:"routeID" binding:"required"`
	RouteInfo    string     `json:"routeInfo"`
	UserID       string     `json:"userID" binding:"required"`
	SeatIDs      []string   `json:"seatIDs" binding:"required,min=1"`
	PricePerSeat FlexNumber `json:"pricePerSeat"`
}

// Validate validates the book seats request
func (r *BookSeatsRequest) Validate() error {
	if len(r.SeatIDs) == 0 {
		return errors.New("at least one seat is required")
	}
	seen := make(map[string]struct{}, len(r.SeatIDs))
	for _, id := range r.SeatIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("seat %s requested twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
