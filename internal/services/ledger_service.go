package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/events"
	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/repository"
	"github.com/smarttransit/route-ledger/internal/storage"
	"github.com/smarttransit/route-ledger/pkg/validator"
)

// BookSeatsInput holds the parameters of a booking
type BookSeatsInput struct {
	RouteID      int
	RouteInfo    string
	UserID       string
	SeatIDs      []string
	PricePerSeat float64
}

// LedgerService owns the seat, booking and user state transitions for one
// loaded repository. Every operation validates before it mutates, so a
// failed operation leaves the repository untouched.
type LedgerService struct {
	repo      *repository.LedgerRepository
	store     storage.Store
	publisher events.Publisher
	validator *validator.UserValidator
	logger    *logrus.Logger
	now       func() time.Time

	defaultSeats int
}

// NewLedgerService creates a ledger service over a loaded repository
func NewLedgerService(repo *repository.LedgerRepository, store storage.Store, publisher events.Publisher, logger *logrus.Logger) *LedgerService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LedgerService{
		repo:         repo,
		store:        store,
		publisher:    publisher,
		validator:    validator.NewUserValidator(),
		logger:       logger,
		now:          time.Now,
		defaultSeats: models.DefaultSeatsPerRoute,
	}
}

// SetClock replaces the time source used for booking timestamps
func (s *LedgerService) SetClock(now func() time.Time) {
	s.now = now
}

// SetDefaultSeats sets the seat count used when initialization omits one
func (s *LedgerService) SetDefaultSeats(n int) {
	if n > 0 {
		s.defaultSeats = n
	}
}

// Repository exposes the loaded repository for read-only collaborators
func (s *LedgerService) Repository() *repository.LedgerRepository {
	return s.repo
}

// ===========================================================================
// USERS
// ===========================================================================

// CreateUser registers a new user
func (s *LedgerService) CreateUser(ctx context.Context, userID, name, email string) (*models.User, error) {
	id, n, e, err := s.validator.Validate(userID, name, email)
	if err != nil {
		return nil, validation("%s", err.Error())
	}
	if s.repo.UserExists(id) {
		return nil, invalidState("user %s already exists", id)
	}

	user := models.NewUser(id, n, e)
	s.repo.PutUser(user)
	if err := s.persistUsers(ctx); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": id}).Info("User created")
	return user, nil
}

// GetUser returns a user by ID
func (s *LedgerService) GetUser(userID string) (*models.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, validation("userID is required")
	}
	user := s.repo.GetUser(userID)
	if user == nil {
		return nil, notFound("user %s not found", userID)
	}
	return user, nil
}

// UpdateUser changes a user's name and email. Booking aggregates are untouched.
func (s *LedgerService) UpdateUser(ctx context.Context, userID, name, email string) (*models.User, error) {
	id, n, e, err := s.validator.Validate(userID, name, email)
	if err != nil {
		return nil, validation("%s", err.Error())
	}
	user := s.repo.GetUser(id)
	if user == nil {
		return nil, notFound("user %s not found", id)
	}

	user.Name = n
	user.Email = e
	if err := s.persistUsers(ctx); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": id}).Info("User updated")
	return user, nil
}

// ListUsers returns every user ordered by ID
func (s *LedgerService) ListUsers() []*models.User {
	return s.repo.Users()
}

// ===========================================================================
// SEATS
// ===========================================================================

// InitializeSeatsForRoute creates totalSeats available seats for a route,
// replacing any seat records with the same IDs. Zero selects the default.
func (s *LedgerService) InitializeSeatsForRoute(ctx context.Context, routeID, totalSeats int) (models.SeatStats, error) {
	if totalSeats == 0 {
		totalSeats = s.defaultSeats
	}
	if totalSeats < 0 {
		return models.SeatStats{}, validation("totalSeats must be positive")
	}
	if !s.repo.RouteExists(routeID) {
		return models.SeatStats{}, notFound("route %d not found", routeID)
	}

	for i := 1; i <= totalSeats; i++ {
		s.repo.PutSeat(models.NewAvailableSeat(routeID, i))
	}
	if err := s.persistSeats(ctx); err != nil {
		return models.SeatStats{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"route_id": routeID,
		"seats":    totalSeats,
	}).Info("Seats initialized")
	return s.repo.SeatStats(routeID), nil
}

// GetSeats returns every seat of a route ordered by seat ID
func (s *LedgerService) GetSeats(routeID int) []*models.Seat {
	return s.repo.SeatsForRoute(routeID)
}

// GetAvailableSeats returns the available seats of a route
func (s *LedgerService) GetAvailableSeats(routeID int) []*models.Seat {
	return s.repo.SeatsForRouteWithStatus(routeID, models.SeatStatusAvailable)
}

// GetBookedSeats returns the booked seats of a route
func (s *LedgerService) GetBookedSeats(routeID int) []*models.Seat {
	return s.repo.SeatsForRouteWithStatus(routeID, models.SeatStatusBooked)
}

// GetSeatStats counts the seats of a route per status
func (s *LedgerService) GetSeatStats(routeID int) models.SeatStats {
	return s.repo.SeatStats(routeID)
}

// ReserveSeat places a hold on an available seat for userID
func (s *LedgerService) ReserveSeat(ctx context.Context, seatID, userID string) (*models.Seat, error) {
	seatID, userID, err := s.holdRequest(seatID, userID)
	if err != nil {
		return nil, err
	}
	seat := s.repo.GetSeat(seatID)
	if seat == nil {
		return nil, notFound("seat %s not found", seatID)
	}
	if !seat.IsAvailable() {
		return nil, invalidState("seat %s is not available", seatID)
	}

	if err := seat.Reserve(userID); err != nil {
		return nil, invalidState("%s", err.Error())
	}
	if err := s.persistSeats(ctx); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"seat_id": seatID, "user_id": userID}).Info("Seat reserved")
	return seat, nil
}

// ReleaseSeat drops a hold placed by userID. Booked seats cannot be released.
func (s *LedgerService) ReleaseSeat(ctx context.Context, seatID, userID string) (*models.Seat, error) {
	seatID, userID, err := s.holdRequest(seatID, userID)
	if err != nil {
		return nil, err
	}
	seat := s.repo.GetSeat(seatID)
	if seat == nil {
		return nil, notFound("seat %s not found", seatID)
	}
	if seat.Status != models.SeatStatusReserved {
		return nil, invalidState("seat %s is not reserved", seatID)
	}
	if seat.UserID != userID {
		return nil, invalidState("seat %s is reserved by another user", seatID)
	}

	if err := seat.Release(userID); err != nil {
		return nil, invalidState("%s", err.Error())
	}
	if err := s.persistSeats(ctx); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"seat_id": seatID, "user_id": userID}).Info("Seat released")
	return seat, nil
}

// holdRequest normalizes a reserve or release request. The holder ID is
// stored as the seat owner, so it follows the user ID format.
func (s *LedgerService) holdRequest(seatID, userID string) (string, string, error) {
	seatID = strings.TrimSpace(seatID)
	if seatID == "" {
		return "", "", validation("seatID is required")
	}
	id, err := s.validator.ValidateUserID(userID)
	if err != nil {
		return "", "", validation("%s", err.Error())
	}
	return seatID, id, nil
}

// ===========================================================================
// BOOKINGS
// ===========================================================================

// BookSeats books every requested seat for the user or none of them
func (s *LedgerService) BookSeats(ctx context.Context, in BookSeatsInput) (*models.Booking, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, validation("userID is required")
	}
	user := s.repo.GetUser(userID)
	if user == nil {
		return nil, notFound("user %s not found", userID)
	}

	req := models.BookSeatsRequest{SeatIDs: in.SeatIDs}
	if err := req.Validate(); err != nil {
		return nil, validation("%s", err.Error())
	}
	if in.PricePerSeat < 0 || math.IsNaN(in.PricePerSeat) || math.IsInf(in.PricePerSeat, 0) {
		return nil, validation("pricePerSeat must be a non-negative number")
	}
	routeInfo, err := s.validator.ValidateRouteInfo(in.RouteInfo)
	if err != nil {
		return nil, validation("%s", err.Error())
	}

	seats := make([]*models.Seat, 0, len(in.SeatIDs))
	for _, id := range in.SeatIDs {
		seat := s.repo.GetSeat(id)
		if seat == nil {
			return nil, notFound("seat %s not found", id)
		}
		seats = append(seats, seat)
	}
	for _, seat := range seats {
		if !seat.IsAvailable() {
			return nil, invalidState("seat %s is not available", seat.SeatID)
		}
	}
	for _, seat := range seats {
		if seat.RouteID != in.RouteID {
			return nil, validation("seat %s does not belong to route %d", seat.SeatID, in.RouteID)
		}
	}

	if routeInfo == "" {
		if route := s.repo.GetRoute(in.RouteID); route != nil {
			routeInfo = route.DisplayName()
		}
	}

	booking := &models.Booking{
		BookingID:  s.repo.NextBookingID(),
		RouteID:    in.RouteID,
		RouteInfo:  routeInfo,
		UserID:     userID,
		SeatIDs:    append([]string{}, in.SeatIDs...),
		TotalPrice: models.RoundMoney(in.PricePerSeat * float64(len(in.SeatIDs))),
		Timestamp:  s.now().UTC().Truncate(time.Second),
		Status:     models.BookingStatusActive,
	}

	for _, seat := range seats {
		// availability was checked above for every seat
		_ = seat.Book(userID, booking.BookingID)
	}
	user.RecordBooking(booking.BookingID, booking.TotalPrice)
	s.repo.PutBooking(booking)

	if err := s.persistAll(ctx); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.BookingID,
		"user_id":     userID,
		"route_id":    in.RouteID,
		"seats":       len(seats),
		"total_price": booking.TotalPrice,
	}).Info("Booking confirmed")

	s.publish(ctx, events.BookingConfirmed(booking, booking.Timestamp))
	return booking, nil
}

// CancelBooking cancels an active booking owned by userID, frees its seats
// and removes its price from the user's spend. The user's lifetime booking
// count is kept.
func (s *LedgerService) CancelBooking(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	bookingID, userID = strings.TrimSpace(bookingID), strings.TrimSpace(userID)
	if bookingID == "" || userID == "" {
		return nil, validation("bookingID and userID are required")
	}
	booking := s.repo.GetBooking(bookingID)
	if booking == nil {
		return nil, notFound("booking %s not found", bookingID)
	}
	if booking.UserID != userID {
		return nil, invalidState("booking %s belongs to another user", bookingID)
	}
	if !booking.CanBeCancelled() {
		return nil, invalidState("booking %s is already cancelled", bookingID)
	}

	for _, id := range booking.SeatIDs {
		// seats re-initialized since the booking no longer belong to it
		if seat := s.repo.GetSeat(id); seat != nil && seat.BookingID == bookingID {
			seat.Free()
		}
	}
	_ = booking.Cancel()
	if user := s.repo.GetUser(booking.UserID); user != nil {
		user.RecordCancellation(booking.TotalPrice)
	}

	if err := s.persistAll(ctx); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"user_id":    userID,
		"refund":     booking.TotalPrice,
	}).Info("Booking cancelled")

	s.publish(ctx, events.BookingCancelled(booking, s.now()))
	return booking, nil
}

// GetBooking returns a booking by ID
func (s *LedgerService) GetBooking(bookingID string) (*models.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, validation("bookingID is required")
	}
	booking := s.repo.GetBooking(bookingID)
	if booking == nil {
		return nil, notFound("booking %s not found", bookingID)
	}
	return booking, nil
}

// ListBookings returns every booking in creation order
func (s *LedgerService) ListBookings() []*models.Booking {
	return s.repo.Bookings()
}

// GetUserBookings returns a user's bookings in the order they were made
func (s *LedgerService) GetUserBookings(userID string) ([]*models.Booking, error) {
	if _, err := s.GetUser(userID); err != nil {
		return nil, err
	}
	return s.repo.BookingsForUser(strings.TrimSpace(userID)), nil
}

// ===========================================================================
// ROUTES
// ===========================================================================

// ListRoutes returns every route segment ordered by ID
func (s *LedgerService) ListRoutes() []*models.RouteSegment {
	return s.repo.Routes()
}

// ===========================================================================
// PERSISTENCE
// ===========================================================================

func (s *LedgerService) persistUsers(ctx context.Context) error {
	if err := s.store.SaveUsers(ctx, s.repo.Users()); err != nil {
		return s.storageFailure("save users", err)
	}
	return nil
}

func (s *LedgerService) persistSeats(ctx context.Context) error {
	if err := s.store.SaveSeats(ctx, s.repo.Seats()); err != nil {
		return s.storageFailure("save seats", err)
	}
	return nil
}

func (s *LedgerService) persistBookings(ctx context.Context) error {
	if err := s.store.SaveBookings(ctx, s.repo.Bookings()); err != nil {
		return s.storageFailure("save bookings", err)
	}
	return nil
}

// persistAll writes bookings, then seats, then users
func (s *LedgerService) persistAll(ctx context.Context) error {
	if err := s.persistBookings(ctx); err != nil {
		return err
	}
	if err := s.persistSeats(ctx); err != nil {
		return err
	}
	return s.persistUsers(ctx)
}

func (s *LedgerService) storageFailure(op string, err error) error {
	s.logger.WithError(err).WithField("op", op).Error("Ledger persistence failed")
	return &StorageError{Op: op, Err: err}
}

func (s *LedgerService) publish(ctx context.Context, event events.BookingEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event":      event.Type,
			"booking_id": event.BookingID,
		}).Warn("Failed to publish booking event")
	}
}
