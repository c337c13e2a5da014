package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/smarttransit/route-ledger/internal/models"
)

const (
	fieldSep = "|"
	listSep  = ","
)

const (
	userFields    = 6
	seatFields    = 5
	bookingFields = 8
)

var (
	textCleaner = strings.NewReplacer("|", " ", "\r", " ", "\n", " ")
	listCleaner = strings.NewReplacer("|", " ", ",", " ", "\r", " ", "\n", " ")
)

// EncodeUser renders userID|name|email|bookingIDs|totalBookings|totalSpent
func EncodeUser(u *models.User) string {
	return strings.Join([]string{
		cleanList(u.UserID),
		textCleaner.Replace(u.Name),
		textCleaner.Replace(u.Email),
		joinList(u.BookingIDs),
		strconv.Itoa(u.TotalBookings),
		formatMoney(u.TotalSpent),
	}, fieldSep)
}

// DecodeUser parses a user record; ok is false when the record is too short
func DecodeUser(line string) (*models.User, bool) {
	f := strings.Split(line, fieldSep)
	if len(f) < userFields {
		return nil, false
	}
	return &models.User{
		UserID:        f[0],
		Name:          f[1],
		Email:         f[2],
		BookingIDs:    splitList(f[3]),
		TotalBookings: parseInt(f[4]),
		TotalSpent:    parseFloat(f[5]),
	}, true
}

// EncodeSeat renders seatID|status|userID|routeID|bookingID
func EncodeSeat(s *models.Seat) string {
	return strings.Join([]string{
		cleanList(s.SeatID),
		string(s.Status),
		cleanList(s.UserID),
		strconv.Itoa(s.RouteID),
		cleanList(s.BookingID),
	}, fieldSep)
}

// DecodeSeat parses a seat record; ok is false when the record is too short.
// A malformed route field falls back to the route encoded in the seat ID.
func DecodeSeat(line string) (*models.Seat, bool) {
	f := strings.Split(line, fieldSep)
	if len(f) < seatFields {
		return nil, false
	}
	routeID, err := strconv.Atoi(strings.TrimSpace(f[3]))
	if err != nil {
		routeID, _, _ = models.ParseSeatID(f[0])
	}
	return &models.Seat{
		SeatID:    f[0],
		Status:    models.ParseSeatStatus(f[1]),
		UserID:    f[2],
		RouteID:   routeID,
		BookingID: f[4],
	}, true
}

// EncodeBooking renders bookingID|routeID|routeInfo|userID|seatIDs|totalPrice|timestamp|status
func EncodeBooking(b *models.Booking) string {
	return strings.Join([]string{
		cleanList(b.BookingID),
		strconv.Itoa(b.RouteID),
		textCleaner.Replace(b.RouteInfo),
		cleanList(b.UserID),
		joinList(b.SeatIDs),
		formatMoney(b.TotalPrice),
		strconv.FormatInt(b.Timestamp.Unix(), 10),
		string(b.Status),
	}, fieldSep)
}

// DecodeBooking parses a booking record; ok is false when the record is too short
func DecodeBooking(line string) (*models.Booking, bool) {
	f := strings.Split(line, fieldSep)
	if len(f) < bookingFields {
		return nil, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(f[6]), 10, 64)
	timestamp := time.Time{}
	if err == nil {
		timestamp = time.Unix(ts, 0).UTC()
	}
	return &models.Booking{
		BookingID:  f[0],
		RouteID:    parseInt(f[1]),
		RouteInfo:  f[2],
		UserID:     f[3],
		SeatIDs:    splitList(f[4]),
		TotalPrice: parseFloat(f[5]),
		Timestamp:  timestamp,
		Status:     models.ParseBookingStatus(f[7]),
	}, true
}

func joinList(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, it := range items {
		cleaned = append(cleaned, cleanList(it))
	}
	return strings.Join(cleaned, listSep)
}

func splitList(field string) []string {
	out := []string{}
	for _, it := range strings.Split(field, listSep) {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func cleanList(s string) string {
	return listCleaner.Replace(s)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
