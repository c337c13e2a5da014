package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SeatStatus represents the status of a route seat
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "Available"
	SeatStatusReserved  SeatStatus = "Reserved"
	SeatStatusBooked    SeatStatus = "Booked"
)

// DefaultSeatsPerRoute is the seat count used when a route is initialized without one
const DefaultSeatsPerRoute = 40

// ParseSeatStatus converts a stored status string. Unknown values map to Available.
func ParseSeatStatus(s string) SeatStatus {
	switch SeatStatus(s) {
	case SeatStatusReserved:
		return SeatStatusReserved
	case SeatStatusBooked:
		return SeatStatusBooked
	default:
		return SeatStatusAvailable
	}
}

// Seat is a bookable unit of capacity on exactly one route segment
type Seat struct {
	SeatID    string     `json:"seatID" db:"seat_id"`
	Status    SeatStatus `json:"status" db:"status"`
	UserID    string     `json:"userID,omitempty" db:"user_id"`
	RouteID   int        `json:"routeID" db:"route_id"`
	BookingID string     `json:"bookingID,omitempty" db:"booking_id"`
}

// SeatID builds the deterministic seat identifier for a route and 1-based index
func SeatID(routeID, index int) string {
	return fmt.Sprintf("R%dS%d", routeID, index)
}

// ParseSeatID splits a seat identifier into route ID and seat index
func ParseSeatID(seatID string) (routeID, index int, err error) {
	if !strings.HasPrefix(seatID, "R") {
		return 0, 0, fmt.Errorf("invalid seat id %q", seatID)
	}
	parts := strings.SplitN(seatID[1:], "S", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid seat id %q", seatID)
	}
	routeID, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid route in seat id %q", seatID)
	}
	index, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid index in seat id %q", seatID)
	}
	return routeID, index, nil
}

// NewAvailableSeat creates an unowned seat for a route
func NewAvailableSeat(routeID, index int) *Seat {
	return &Seat{
		SeatID:  SeatID(routeID, index),
		Status:  SeatStatusAvailable,
		RouteID: routeID,
	}
}

// IsAvailable checks if the seat can be reserved or booked
func (s *Seat) IsAvailable() bool {
	return s.Status == SeatStatusAvailable
}

// Reserve places a single-user hold on an available seat
func (s *Seat) Reserve(userID string) error {
	if !s.IsAvailable() {
		return fmt.Errorf("seat %s is %s", s.SeatID, s.Status)
	}
	s.Status = SeatStatusReserved
	s.UserID = userID
	return nil
}

// Release drops a hold owned by userID
func (s *Seat) Release(userID string) error {
	if s.Status != SeatStatusReserved {
		return fmt.Errorf("seat %s is %s", s.SeatID, s.Status)
	}
	if s.UserID != userID {
		return fmt.Errorf("seat %s is held by another user", s.SeatID)
	}
	s.clear()
	return nil
}

// Book assigns an available seat to a booking
func (s *Seat) Book(userID, bookingID string) error {
	if !s.IsAvailable() {
		return fmt.Errorf("seat %s is %s", s.SeatID, s.Status)
	}
	s.Status = SeatStatusBooked
	s.UserID = userID
	s.BookingID = bookingID
	return nil
}

// Free returns a booked seat to the available pool
func (s *Seat) Free() {
	s.clear()
}

func (s *Seat) clear() {
	s.Status = SeatStatusAvailable
	s.UserID = ""
	s.BookingID = ""
}

// Clone returns a copy of the seat
func (s *Seat) Clone() *Seat {
	c := *s
	return &c
}

// SeatStats summarizes seat availability for one route
type SeatStats struct {
	RouteID   int `json:"routeID"`
	Total     int `json:"total"`
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Booked    int `json:"booked"`
}
