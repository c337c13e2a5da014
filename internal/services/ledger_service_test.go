package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/events"
	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/repository"
	"github.com/smarttransit/route-ledger/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	storage.Store
	failSeats bool
}

func (f *failingStore) SaveSeats(ctx context.Context, seats []*models.Seat) error {
	if f.failSeats {
		return fmt.Errorf("disk full")
	}
	return f.Store.SaveSeats(ctx, seats)
}

type recordingPublisher struct {
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.events = append(p.events, e)
	return p.err
}

var fixedNow = time.Date(2024, 6, 1, 9, 30, 15, 500, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func routeFixture() []*models.RouteSegment {
	return []*models.RouteSegment{
		{RouteID: 7, From: "Colombo", To: "Kandy", Distance: 115, TicketPrice: 350},
		{RouteID: 8, From: "Kandy", To: "Ella", Distance: 140, TicketPrice: 400},
	}
}

// setupLedgerTest builds a service over a file store in a temp dir with
// routes 7 and 8 and user u1
func setupLedgerTest(t *testing.T) (*LedgerService, *storage.FileStore, *recordingPublisher) {
	t.Helper()
	store := storage.NewFileStore(t.TempDir())
	pub := &recordingPublisher{}
	svc := newServiceOver(t, store, pub)

	_, err := svc.CreateUser(context.Background(), "u1", "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	return svc, store, pub
}

func newServiceOver(t *testing.T, store storage.Store, pub events.Publisher) *LedgerService {
	t.Helper()
	repo, err := storage.LoadLedger(context.Background(), store, staticRoutes(routeFixture()))
	require.NoError(t, err)

	svc := NewLedgerService(repo, store, pub, quietLogger())
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

type staticRoutes []*models.RouteSegment

func (r staticRoutes) LoadRoutes(context.Context) ([]*models.RouteSegment, error) {
	out := make([]*models.RouteSegment, 0, len(r))
	for _, s := range r {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func reload(t *testing.T, store storage.Store) *repository.LedgerRepository {
	t.Helper()
	repo, err := storage.LoadLedger(context.Background(), store, staticRoutes(routeFixture()))
	require.NoError(t, err)
	return repo
}

func assertSeatInvariants(t *testing.T, repo *repository.LedgerRepository) {
	t.Helper()
	for _, seat := range repo.Seats() {
		switch seat.Status {
		case models.SeatStatusBooked:
			assert.NotEmpty(t, seat.BookingID, seat.SeatID)
			assert.NotEmpty(t, seat.UserID, seat.SeatID)
		case models.SeatStatusAvailable:
			assert.Empty(t, seat.BookingID, seat.SeatID)
			assert.Empty(t, seat.UserID, seat.SeatID)
		case models.SeatStatusReserved:
			assert.NotEmpty(t, seat.UserID, seat.SeatID)
			assert.Empty(t, seat.BookingID, seat.SeatID)
		}
	}
}

func TestRoute7Scenario(t *testing.T) {
	svc, store, pub := setupLedgerTest(t)
	ctx := context.Background()

	stats, err := svc.InitializeSeatsForRoute(ctx, 7, 40)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStats{RouteID: 7, Total: 40, Available: 40}, stats)
	assert.Len(t, svc.GetAvailableSeats(7), 40)

	booking, err := svc.BookSeats(ctx, BookSeatsInput{
		RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1", "R7S2"}, PricePerSeat: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, "BK1", booking.BookingID)
	assert.Equal(t, 50.0, booking.TotalPrice)
	assert.Equal(t, "Colombo → Kandy", booking.RouteInfo)
	assert.Equal(t, fixedNow.Truncate(time.Second), booking.Timestamp)
	assert.Equal(t, models.BookingStatusActive, booking.Status)

	for _, id := range []string{"R7S1", "R7S2"} {
		seat := svc.Repository().GetSeat(id)
		assert.Equal(t, models.SeatStatusBooked, seat.Status)
		assert.Equal(t, "BK1", seat.BookingID)
		assert.Equal(t, "u1", seat.UserID)
	}
	user, err := svc.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, user.TotalSpent)
	assert.Equal(t, 1, user.TotalBookings)
	assert.Equal(t, []string{"BK1"}, user.BookingIDs)
	assertSeatInvariants(t, svc.Repository())

	cancelled, err := svc.CancelBooking(ctx, "BK1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	for _, id := range []string{"R7S1", "R7S2"} {
		seat := svc.Repository().GetSeat(id)
		assert.Equal(t, models.SeatStatusAvailable, seat.Status)
		assert.Empty(t, seat.BookingID)
		assert.Empty(t, seat.UserID)
	}
	assert.Equal(t, 0.0, user.TotalSpent)
	assert.Equal(t, 1, user.TotalBookings, "lifetime booking count is kept")
	assertSeatInvariants(t, svc.Repository())

	require.Len(t, pub.events, 2)
	assert.Equal(t, events.QueueBookingConfirmed, pub.events[0].Type)
	assert.Equal(t, events.QueueBookingCancelled, pub.events[1].Type)

	// cancellation is durable across a reload
	repo := reload(t, store)
	assert.Equal(t, models.BookingStatusCancelled, repo.GetBooking("BK1").Status)
	assert.Equal(t, models.SeatStatusAvailable, repo.GetSeat("R7S1").Status)
	assert.Equal(t, models.SeatStatusAvailable, repo.GetSeat("R7S2").Status)
	assert.Equal(t, 0.0, repo.GetUser("u1").TotalSpent)
	assert.Equal(t, 1, repo.GetUser("u1").TotalBookings)
	assert.Equal(t, "BK2", repo.NextBookingID())
}

func TestBookSeats_RoundTripsThroughStore(t *testing.T) {
	svc, store, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 5)
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S3"}, PricePerSeat: 12.345})
	require.NoError(t, err)
	_, err = svc.ReserveSeat(ctx, "R7S4", "u1")
	require.NoError(t, err)

	before := svc.Repository()
	after := reload(t, store)

	assert.Equal(t, before.Users(), after.Users())
	assert.Equal(t, before.Seats(), after.Seats())
	assert.Equal(t, before.Bookings(), after.Bookings())
	assert.Equal(t, before.Routes(), after.Routes())
}

func TestStoredText_SurvivesReload(t *testing.T) {
	svc, store, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 5)
	require.NoError(t, err)

	rejected := []struct {
		name string
		call func() error
	}{
		{"Reserve holder with comma", func() error {
			_, err := svc.ReserveSeat(ctx, "R7S4", "guest,1")
			return err
		}},
		{"Reserve holder with pipe", func() error {
			_, err := svc.ReserveSeat(ctx, "R7S4", "guest|1")
			return err
		}},
		{"Release holder with comma", func() error {
			_, err := svc.ReleaseSeat(ctx, "R7S4", "guest,1")
			return err
		}},
		{"Route info with pipe", func() error {
			_, err := svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, RouteInfo: "Colombo|Kandy express", UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 10})
			return err
		}},
		{"Route info with line break", func() error {
			_, err := svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, RouteInfo: "Colombo\nKandy", UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 10})
			return err
		}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.call(), ErrValidation)
			assert.Equal(t, models.SeatStats{RouteID: 7, Total: 5, Available: 5}, svc.GetSeatStats(7))
		})
	}

	_, err = svc.ReserveSeat(ctx, "R7S4", "guest.1")
	require.NoError(t, err)
	booking, err := svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, RouteInfo: "Colombo, Kandy express", UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 10})
	require.NoError(t, err)

	after := reload(t, store)
	assert.Equal(t, "guest.1", after.GetSeat("R7S4").UserID)
	assert.Equal(t, "Colombo, Kandy express", after.GetBooking(booking.BookingID).RouteInfo)

	// the holder can still release after a reload
	reloaded := NewLedgerService(after, store, nil, quietLogger())
	seat, err := reloaded.ReleaseSeat(ctx, "R7S4", "guest.1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
}

func TestBookSeats_AllOrNothing(t *testing.T) {
	svc, store, pub := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 4)
	require.NoError(t, err)
	_, err = svc.InitializeSeatsForRoute(ctx, 8, 4)
	require.NoError(t, err)
	_, err = svc.ReserveSeat(ctx, "R7S3", "someone")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "u2", "Other", "other@example.com")
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   BookSeatsInput
		errKind error
	}{
		{"Unknown user", BookSeatsInput{RouteID: 7, UserID: "ghost", SeatIDs: []string{"R7S1"}, PricePerSeat: 10}, ErrNotFound},
		{"Unknown user checked before seats", BookSeatsInput{RouteID: 7, UserID: "ghost", SeatIDs: []string{"R7S1", "R7S1"}, PricePerSeat: -1}, ErrNotFound},
		{"Missing seat", BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1", "R7S99"}, PricePerSeat: 10}, ErrNotFound},
		{"Reserved seat", BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1", "R7S3"}, PricePerSeat: 10}, ErrInvalidState},
		{"Foreign route", BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1", "R8S1"}, PricePerSeat: 10}, ErrValidation},
		{"No seats", BookSeatsInput{RouteID: 7, UserID: "u1", PricePerSeat: 10}, ErrValidation},
		{"Duplicate seat", BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1", "R7S1"}, PricePerSeat: 10}, ErrValidation},
		{"Negative price", BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: -1}, ErrValidation},
		{"Missing user", BookSeatsInput{RouteID: 7, SeatIDs: []string{"R7S1"}}, ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.BookSeats(ctx, tc.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.errKind)

			assert.Empty(t, svc.ListBookings())
			assert.Equal(t, models.SeatStats{RouteID: 7, Total: 4, Available: 3, Reserved: 1}, svc.GetSeatStats(7))
			assert.Equal(t, models.SeatStats{RouteID: 8, Total: 4, Available: 4}, svc.GetSeatStats(8))
			user, _ := svc.GetUser("u1")
			assert.Equal(t, 0, user.TotalBookings)
			assert.Equal(t, 0.0, user.TotalSpent)
		})
	}

	assert.Empty(t, pub.events)
	assert.Empty(t, reload(t, store).Bookings())

	// a booked seat cannot be booked again
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 10})
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u2", SeatIDs: []string{"R7S1"}, PricePerSeat: 10})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReserveAndRelease(t *testing.T) {
	svc, store, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 2)
	require.NoError(t, err)

	seat, err := svc.ReserveSeat(ctx, "R7S1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusReserved, seat.Status)

	_, err = svc.ReserveSeat(ctx, "R7S1", "u2")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "u1", svc.Repository().GetSeat("R7S1").UserID)

	_, err = svc.ReleaseSeat(ctx, "R7S1", "u2")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.SeatStatusReserved, svc.Repository().GetSeat("R7S1").Status)

	_, err = svc.ReserveSeat(ctx, "R7S9", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ReleaseSeat(ctx, "R7S2", "u1")
	assert.ErrorIs(t, err, ErrInvalidState, "available seats cannot be released")

	assert.Equal(t, models.SeatStatusReserved, reload(t, store).GetSeat("R7S1").Status)

	seat, err = svc.ReleaseSeat(ctx, "R7S1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	assert.Empty(t, seat.UserID)
	assert.Equal(t, models.SeatStatusAvailable, reload(t, store).GetSeat("R7S1").Status)
}

func TestReleaseBookedSeatFails(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 1)
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 5})
	require.NoError(t, err)

	_, err = svc.ReleaseSeat(ctx, "R7S1", "u1")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.SeatStatusBooked, svc.Repository().GetSeat("R7S1").Status)
}

func TestCancelBooking_Failures(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 2)
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 5})
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, "BK404", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CancelBooking(ctx, "BK1", "intruder")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.SeatStatusBooked, svc.Repository().GetSeat("R7S1").Status)

	_, err = svc.CancelBooking(ctx, "BK1", "u1")
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, "BK1", "u1")
	assert.ErrorIs(t, err, ErrInvalidState)
	user, _ := svc.GetUser("u1")
	assert.Equal(t, 0.0, user.TotalSpent, "second cancel does not refund twice")
}

func TestCancelBooking_SkipsReinitializedSeats(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 2)
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 5})
	require.NoError(t, err)

	_, err = svc.InitializeSeatsForRoute(ctx, 7, 2)
	require.NoError(t, err)
	_, err = svc.ReserveSeat(ctx, "R7S1", "u9")
	require.NoError(t, err)

	_, err = svc.CancelBooking(ctx, "BK1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusReserved, svc.Repository().GetSeat("R7S1").Status)
}

func TestInitializeSeatsForRoute(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	ctx := context.Background()
	svc.SetDefaultSeats(12)

	stats, err := svc.InitializeSeatsForRoute(ctx, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.Total)

	_, err = svc.ReserveSeat(ctx, "R8S1", "u1")
	require.NoError(t, err)

	// re-initializing replaces, it does not add
	stats, err = svc.InitializeSeatsForRoute(ctx, 8, 12)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStats{RouteID: 8, Total: 12, Available: 12}, stats)

	_, err = svc.InitializeSeatsForRoute(ctx, 99, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.InitializeSeatsForRoute(ctx, 8, -3)
	assert.ErrorIs(t, err, ErrValidation)

	seats := svc.GetSeats(8)
	assert.Equal(t, "R8S1", seats[0].SeatID)
	assert.Equal(t, "R8S10", seats[1].SeatID)
}

func TestUsers(t *testing.T) {
	svc, store, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "u1", "Again", "again@example.com")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.CreateUser(ctx, "bad|id", "X", "x@example.com")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateUser(ctx, "u2", "Bob", "not-an-email")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateUser(ctx, "u1", "Jane Smith", "JANE.S@example.com")
	require.NoError(t, err)
	assert.Equal(t, "jane.s@example.com", updated.Email)

	_, err = svc.UpdateUser(ctx, "ghost", "G", "g@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetUser("ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, "Jane Smith", reload(t, store).GetUser("u1").Name)
	assert.Len(t, svc.ListUsers(), 1)
}

func TestUserBookings(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 3)
	require.NoError(t, err)
	for _, id := range []string{"R7S1", "R7S2"} {
		_, err := svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, RouteInfo: "custom", UserID: "u1", SeatIDs: []string{id}, PricePerSeat: 1})
		require.NoError(t, err)
	}

	bookings, err := svc.GetUserBookings("u1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "BK1", bookings[0].BookingID)
	assert.Equal(t, "custom", bookings[0].RouteInfo)

	_, err = svc.GetUserBookings("ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetBooking("BK2")
	assert.NoError(t, err)
	_, err = svc.GetBooking("BK3")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, svc.GetBookedSeats(7), 2)
	assert.Len(t, svc.ListRoutes(), 2)
}

func TestStorageFailureIsFatal(t *testing.T) {
	base := storage.NewFileStore(t.TempDir())
	store := &failingStore{Store: base}
	svc := newServiceOver(t, store, nil)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "u1", "Jane", "jane@example.com")
	require.NoError(t, err)
	_, err = svc.InitializeSeatsForRoute(ctx, 7, 2)
	require.NoError(t, err)

	store.failSeats = true
	_, err = svc.ReserveSeat(ctx, "R7S1", "u1")
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.False(t, errors.Is(err, ErrInvalidState))

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "save seats", se.Op)
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())
	pub := &recordingPublisher{err: fmt.Errorf("broker down")}
	svc := newServiceOver(t, store, pub)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "u1", "Jane", "jane@example.com")
	require.NoError(t, err)
	_, err = svc.InitializeSeatsForRoute(ctx, 7, 1)
	require.NoError(t, err)

	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 3})
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
}
