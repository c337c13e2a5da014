package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFilesLoadEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "never-created"))
	ctx := context.Background()

	users, err := store.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	seats, err := store.LoadSeats(ctx)
	require.NoError(t, err)
	assert.Empty(t, seats)

	bookings, err := store.LoadBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	users := []*models.User{
		{UserID: "u1", Name: "Jane Doe", Email: "jane@example.com", BookingIDs: []string{"BK1", "BK2"}, TotalBookings: 2, TotalSpent: 75.5},
		{UserID: "u2", Name: "No Bookings", Email: "nb@example.com", BookingIDs: []string{}},
	}
	seats := []*models.Seat{
		{SeatID: "R7S1", Status: models.SeatStatusBooked, UserID: "u1", RouteID: 7, BookingID: "BK1"},
		{SeatID: "R7S2", Status: models.SeatStatusReserved, UserID: "u2", RouteID: 7},
		{SeatID: "R7S3", Status: models.SeatStatusAvailable, RouteID: 7},
	}
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	bookings := []*models.Booking{
		{BookingID: "BK1", RouteID: 7, RouteInfo: "Colombo → Kandy", UserID: "u1", SeatIDs: []string{"R7S1"}, TotalPrice: 25, Timestamp: ts, Status: models.BookingStatusActive},
		{BookingID: "BK2", RouteID: 7, RouteInfo: "", UserID: "u1", SeatIDs: []string{"R7S4", "R7S5"}, TotalPrice: 50.5, Timestamp: ts, Status: models.BookingStatusCancelled},
	}

	require.NoError(t, store.SaveUsers(ctx, users))
	require.NoError(t, store.SaveSeats(ctx, seats))
	require.NoError(t, store.SaveBookings(ctx, bookings))

	gotUsers, err := store.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, users, gotUsers)

	gotSeats, err := store.LoadSeats(ctx)
	require.NoError(t, err)
	assert.Equal(t, seats, gotSeats)

	gotBookings, err := store.LoadBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, bookings, gotBookings)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	require.NoError(t, store.SaveUsers(ctx, []*models.User{models.NewUser("a", "A", "a@x.io"), models.NewUser("b", "B", "b@x.io")}))
	require.NoError(t, store.SaveUsers(ctx, []*models.User{models.NewUser("c", "C", "c@x.io")}))

	users, err := store.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "c", users[0].UserID)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestFileStore_ToleratesMalformedRecords(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		"u1|Jane|jane@example.com|BK1|1|25.00",
		"",
		"short|record",
		"u2|Bob|bob@example.com||abc|not-a-number",
		"   ",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFile), []byte(content), 0o644))

	seats := "R3S1|Booked|u1|x|BK1\nR3S2|Available\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, SeatsFile), []byte(seats), 0o644))

	bookingsContent := "BK5|3|info|u1|R3S1|25.00|bad-ts|Active\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, BookingsFile), []byte(bookingsContent), 0o644))

	store := NewFileStore(dir)
	ctx := context.Background()

	users, err := store.LoadUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"BK1"}, users[0].BookingIDs)
	assert.Equal(t, 0, users[1].TotalBookings)
	assert.Equal(t, 0.0, users[1].TotalSpent)
	assert.Empty(t, users[1].BookingIDs)

	loadedSeats, err := store.LoadSeats(ctx)
	require.NoError(t, err)
	require.Len(t, loadedSeats, 1)
	assert.Equal(t, 3, loadedSeats[0].RouteID, "route recovered from the seat id")

	bookings, err := store.LoadBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.True(t, bookings[0].Timestamp.IsZero())
	assert.Equal(t, models.BookingStatusActive, bookings[0].Status)
}

func TestEncode_StripsDelimiters(t *testing.T) {
	line := EncodeUser(&models.User{UserID: "u1", Name: "Doe|Jane\nX", Email: "j@x.io", BookingIDs: []string{"BK1", "BK2"}, TotalSpent: 1.005})
	assert.Equal(t, "u1|Doe Jane X|j@x.io|BK1,BK2|0|1.00", line)

	b := EncodeBooking(&models.Booking{BookingID: "BK1", RouteID: 2, RouteInfo: "A|B", UserID: "u1", SeatIDs: []string{"R2S1"}, TotalPrice: 10, Timestamp: time.Unix(100, 0), Status: models.BookingStatusActive})
	assert.Equal(t, "BK1|2|A B|u1|R2S1|10.00|100|Active", b)
}

func TestFileStore_CancelledContext(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.LoadUsers(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.SaveSeats(ctx, nil), context.Canceled)
}
