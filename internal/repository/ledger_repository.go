package repository

import (
	"sort"

	"github.com/smarttransit/route-ledger/internal/models"
)

// LedgerRepository holds the in-memory users, seats, bookings and route
// segments for a single load-compute-save cycle. It enforces no
// cross-collection integrity; the reservation ledger owns those rules.
type LedgerRepository struct {
	users    map[string]*models.User
	seats    map[string]*models.Seat
	bookings map[string]*models.Booking
	routes   map[int]*models.RouteSegment

	nextBookingSeq int
}

// NewLedgerRepository creates an empty repository
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{
		users:          make(map[string]*models.User),
		seats:          make(map[string]*models.Seat),
		bookings:       make(map[string]*models.Booking),
		routes:         make(map[int]*models.RouteSegment),
		nextBookingSeq: 1,
	}
}

// ===========================================================================
// USERS
// ===========================================================================

// GetUser returns the user or nil
func (r *LedgerRepository) GetUser(userID string) *models.User {
	return r.users[userID]
}

// PutUser inserts or replaces a user
func (r *LedgerRepository) PutUser(user *models.User) {
	if user.BookingIDs == nil {
		user.BookingIDs = []string{}
	}
	r.users[user.UserID] = user
}

// UserExists checks if a user is present
func (r *LedgerRepository) UserExists(userID string) bool {
	_, ok := r.users[userID]
	return ok
}

// Users returns all users ordered by user ID
func (r *LedgerRepository) Users() []*models.User {
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// ===========================================================================
// SEATS
// ===========================================================================

// GetSeat returns the seat or nil
func (r *LedgerRepository) GetSeat(seatID string) *models.Seat {
	return r.seats[seatID]
}

// PutSeat inserts or replaces a seat
func (r *LedgerRepository) PutSeat(seat *models.Seat) {
	r.seats[seat.SeatID] = seat
}

// SeatExists checks if a seat is present
func (r *LedgerRepository) SeatExists(seatID string) bool {
	_, ok := r.seats[seatID]
	return ok
}

// Seats returns all seats ordered by seat ID
func (r *LedgerRepository) Seats() []*models.Seat {
	out := make([]*models.Seat, 0, len(r.seats))
	for _, s := range r.seats {
		out = append(out, s)
	}
	sortSeats(out)
	return out
}

// SeatsForRoute returns the seats of one route ordered by seat ID
func (r *LedgerRepository) SeatsForRoute(routeID int) []*models.Seat {
	return r.SeatsForRouteWithStatus(routeID, "")
}

// SeatsForRouteWithStatus returns the seats of one route in the given
// status, ordered by seat ID. An empty status matches every seat.
func (r *LedgerRepository) SeatsForRouteWithStatus(routeID int, status models.SeatStatus) []*models.Seat {
	out := []*models.Seat{}
	for _, s := range r.seats {
		if s.RouteID != routeID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, s)
	}
	sortSeats(out)
	return out
}

// SeatStats counts the seats of a route per status
func (r *LedgerRepository) SeatStats(routeID int) models.SeatStats {
	stats := models.SeatStats{RouteID: routeID}
	for _, s := range r.seats {
		if s.RouteID != routeID {
			continue
		}
		stats.Total++
		switch s.Status {
		case models.SeatStatusAvailable:
			stats.Available++
		case models.SeatStatusReserved:
			stats.Reserved++
		case models.SeatStatusBooked:
			stats.Booked++
		}
	}
	return stats
}

// seat IDs compare as plain strings, so R7S10 sorts before R7S2
func sortSeats(seats []*models.Seat) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatID < seats[j].SeatID })
}

// ===========================================================================
// BOOKINGS
// ===========================================================================

// GetBooking returns the booking or nil
func (r *LedgerRepository) GetBooking(bookingID string) *models.Booking {
	return r.bookings[bookingID]
}

// PutBooking inserts or replaces a booking and advances the booking
// counter past its numeric suffix
func (r *LedgerRepository) PutBooking(booking *models.Booking) {
	if booking.SeatIDs == nil {
		booking.SeatIDs = []string{}
	}
	r.bookings[booking.BookingID] = booking
	if seq, ok := models.BookingSequence(booking.BookingID); ok && seq >= r.nextBookingSeq {
		r.nextBookingSeq = seq + 1
	}
}

// BookingExists checks if a booking is present
func (r *LedgerRepository) BookingExists(bookingID string) bool {
	_, ok := r.bookings[bookingID]
	return ok
}

// Bookings returns all bookings ordered by booking sequence
func (r *LedgerRepository) Bookings() []*models.Booking {
	out := make([]*models.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return bookingLess(out[i].BookingID, out[j].BookingID) })
	return out
}

// BookingsForUser returns the user's bookings in the order they were made.
// IDs in the user's list that have no booking record are skipped.
func (r *LedgerRepository) BookingsForUser(userID string) []*models.Booking {
	out := []*models.Booking{}
	user := r.users[userID]
	if user == nil {
		return out
	}
	for _, id := range user.BookingIDs {
		if b := r.bookings[id]; b != nil {
			out = append(out, b)
		}
	}
	return out
}

// NextBookingID allocates the next booking identifier
func (r *LedgerRepository) NextBookingID() string {
	id := models.FormatBookingID(r.nextBookingSeq)
	r.nextBookingSeq++
	return id
}

func bookingLess(a, b string) bool {
	sa, oka := models.BookingSequence(a)
	sb, okb := models.BookingSequence(b)
	if oka && okb && sa != sb {
		return sa < sb
	}
	if oka != okb {
		return oka
	}
	return a < b
}

// ===========================================================================
// ROUTE SEGMENTS
// ===========================================================================

// GetRoute returns the route segment or nil
func (r *LedgerRepository) GetRoute(routeID int) *models.RouteSegment {
	return r.routes[routeID]
}

// PutRoute inserts or replaces a route segment
func (r *LedgerRepository) PutRoute(route *models.RouteSegment) {
	r.routes[route.RouteID] = route
}

// RouteExists checks if a route segment is present
func (r *LedgerRepository) RouteExists(routeID int) bool {
	_, ok := r.routes[routeID]
	return ok
}

// Routes returns all route segments ordered by route ID
func (r *LedgerRepository) Routes() []*models.RouteSegment {
	out := make([]*models.RouteSegment, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteID < out[j].RouteID })
	return out
}
