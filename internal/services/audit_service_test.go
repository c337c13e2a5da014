package services

import (
	"context"
	"testing"

	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func violationKinds(report AuditReport) []string {
	kinds := []string{}
	for _, v := range report.Violations {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

func TestAudit_ConsistentLedger(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	ctx := context.Background()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 5)
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1", "R7S2"}, PricePerSeat: 10})
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S3"}, PricePerSeat: 10})
	require.NoError(t, err)
	_, err = svc.CancelBooking(ctx, "BK2", "u1")
	require.NoError(t, err)
	_, err = svc.ReserveSeat(ctx, "R7S4", "u1")
	require.NoError(t, err)

	report := NewAuditService(quietLogger()).Audit(svc.Repository())
	assert.True(t, report.OK, "%v", report.Violations)
	assert.Equal(t, 5, report.Seats)
	assert.Equal(t, 2, report.Bookings)
	assert.Equal(t, 1, report.Users)
	assert.Equal(t, 2, report.Routes)
}

func TestAudit_DetectsViolations(t *testing.T) {
	svc, _, _ := setupLedgerTest(t)
	ctx := context.Background()
	repo := svc.Repository()

	_, err := svc.InitializeSeatsForRoute(ctx, 7, 3)
	require.NoError(t, err)
	_, err = svc.BookSeats(ctx, BookSeatsInput{RouteID: 7, UserID: "u1", SeatIDs: []string{"R7S1"}, PricePerSeat: 10})
	require.NoError(t, err)

	// available seat with an owner
	repo.GetSeat("R7S2").UserID = "u1"
	// seat on a route that is not in the fixture
	repo.PutSeat(models.NewAvailableSeat(42, 1))
	// booking seat freed behind the ledger's back
	repo.GetSeat("R7S1").Free()
	// spend drift
	repo.GetUser("u1").TotalSpent = 99

	report := NewAuditService(quietLogger()).Audit(repo)
	assert.False(t, report.OK)
	kinds := violationKinds(report)
	assert.Contains(t, kinds, ViolationSeatOwnership)
	assert.Contains(t, kinds, ViolationSeatUnknownRoute)
	assert.Contains(t, kinds, ViolationBookingSeat)
	assert.Contains(t, kinds, ViolationUserSpendMismatch)
	assert.NotContains(t, kinds, ViolationUserBookingCount)
}
