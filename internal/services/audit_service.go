package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/repository"
)

// Violation kinds reported by the ledger audit
const (
	ViolationSeatUnknownRoute  = "seat_unknown_route"
	ViolationSeatOwnership     = "seat_ownership"
	ViolationSeatBooking       = "seat_booking_mismatch"
	ViolationBookingSeat       = "booking_seat_mismatch"
	ViolationBookingUser       = "booking_user_mismatch"
	ViolationUserBookingCount  = "user_booking_count"
	ViolationUserSpendMismatch = "user_spend_mismatch"
)

// Violation is one broken ledger invariant
type Violation struct {
	Kind    string `json:"kind"`
	Entity  string `json:"entity"`
	Message string `json:"message"`
}

// AuditReport summarizes a ledger consistency check
type AuditReport struct {
	CheckedAt  time.Time   `json:"checkedAt"`
	Users      int         `json:"users"`
	Seats      int         `json:"seats"`
	Bookings   int         `json:"bookings"`
	Routes     int         `json:"routes"`
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations"`
}

// AuditService checks the cross-collection invariants of a loaded ledger
type AuditService struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(logger *logrus.Logger) *AuditService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuditService{logger: logger, now: time.Now}
}

// Audit inspects every seat, booking and user without mutating anything
func (s *AuditService) Audit(repo *repository.LedgerRepository) AuditReport {
	report := AuditReport{
		CheckedAt:  s.now().UTC().Truncate(time.Second),
		Violations: []Violation{},
	}
	add := func(kind, entity, format string, args ...interface{}) {
		report.Violations = append(report.Violations, Violation{
			Kind:    kind,
			Entity:  entity,
			Message: fmt.Sprintf(format, args...),
		})
	}

	seats := repo.Seats()
	bookings := repo.Bookings()
	users := repo.Users()
	report.Seats, report.Bookings, report.Users = len(seats), len(bookings), len(users)
	report.Routes = len(repo.Routes())

	for _, seat := range seats {
		if !repo.RouteExists(seat.RouteID) {
			add(ViolationSeatUnknownRoute, seat.SeatID, "seat references unknown route %d", seat.RouteID)
		}
		switch seat.Status {
		case models.SeatStatusAvailable:
			if seat.UserID != "" || seat.BookingID != "" {
				add(ViolationSeatOwnership, seat.SeatID, "available seat has owner %q or booking %q", seat.UserID, seat.BookingID)
			}
		case models.SeatStatusReserved:
			if seat.UserID == "" || seat.BookingID != "" {
				add(ViolationSeatOwnership, seat.SeatID, "reserved seat must have an owner and no booking")
			}
		case models.SeatStatusBooked:
			if seat.UserID == "" || seat.BookingID == "" {
				add(ViolationSeatOwnership, seat.SeatID, "booked seat must have an owner and a booking")
				continue
			}
			b := repo.GetBooking(seat.BookingID)
			if b == nil || b.Status != models.BookingStatusActive || !containsString(b.SeatIDs, seat.SeatID) {
				add(ViolationSeatBooking, seat.SeatID, "booked seat is not covered by active booking %s", seat.BookingID)
			}
		}
	}

	spent := make(map[string]float64)
	for _, b := range bookings {
		user := repo.GetUser(b.UserID)
		if user == nil || !user.OwnsBooking(b.BookingID) {
			add(ViolationBookingUser, b.BookingID, "booking is not listed by user %s", b.UserID)
		}
		if b.Status != models.BookingStatusActive {
			continue
		}
		spent[b.UserID] += b.TotalPrice
		for _, id := range b.SeatIDs {
			seat := repo.GetSeat(id)
			if seat == nil || seat.Status != models.SeatStatusBooked || seat.BookingID != b.BookingID {
				add(ViolationBookingSeat, b.BookingID, "seat %s is not booked under this booking", id)
				continue
			}
			if seat.RouteID != b.RouteID || seat.UserID != b.UserID {
				add(ViolationBookingSeat, b.BookingID, "seat %s route or owner differs from the booking", id)
			}
		}
	}

	for _, u := range users {
		if u.TotalBookings != len(u.BookingIDs) {
			add(ViolationUserBookingCount, u.UserID, "totalBookings %d but %d booking ids", u.TotalBookings, len(u.BookingIDs))
		}
		if want := models.RoundMoney(spent[u.UserID]); models.RoundMoney(u.TotalSpent) != want {
			add(ViolationUserSpendMismatch, u.UserID, "totalSpent %.2f but active bookings total %.2f", u.TotalSpent, want)
		}
	}

	report.OK = len(report.Violations) == 0
	entry := s.logger.WithFields(logrus.Fields{
		"users":      report.Users,
		"seats":      report.Seats,
		"bookings":   report.Bookings,
		"violations": len(report.Violations),
	})
	if report.OK {
		entry.Info("Ledger audit passed")
	} else {
		entry.Warn("Ledger audit found violations")
	}
	return report
}

func containsString(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
