// Package events publishes booking lifecycle events for downstream
// consumers. Publishing never affects the outcome of a ledger operation.
package events

import (
	"context"
	"time"

	"github.com/smarttransit/route-ledger/internal/models"
)

// Queue names, one per event type
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// BookingEvent describes a booking that was created or cancelled
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"bookingID"`
	UserID     string    `json:"userID"`
	RouteID    int       `json:"routeID"`
	RouteInfo  string    `json:"routeInfo"`
	SeatIDs    []string  `json:"seatIDs"`
	TotalPrice float64   `json:"totalPrice"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BookingConfirmed builds the event for a new booking
func BookingConfirmed(b *models.Booking, at time.Time) BookingEvent {
	return newBookingEvent(QueueBookingConfirmed, b, at)
}

// BookingCancelled builds the event for a cancelled booking
func BookingCancelled(b *models.Booking, at time.Time) BookingEvent {
	return newBookingEvent(QueueBookingCancelled, b, at)
}

func newBookingEvent(kind string, b *models.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       kind,
		BookingID:  b.BookingID,
		UserID:     b.UserID,
		RouteID:    b.RouteID,
		RouteInfo:  b.RouteInfo,
		SeatIDs:    append([]string{}, b.SeatIDs...),
		TotalPrice: b.TotalPrice,
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers booking events
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// NoopPublisher discards every event
type NoopPublisher struct{}

// Publish implements Publisher
func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }
