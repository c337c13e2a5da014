package processor

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/smarttransit/route-ledger/internal/models"
)

// Commands understood by the processor
const (
	CmdCreateUser        = "createUser"
	CmdGetUser           = "getUser"
	CmdUpdateUser        = "updateUser"
	CmdGetAllUsers       = "getAllUsers"
	CmdInitSeats         = "initSeats"
	CmdGetSeats          = "getSeats"
	CmdGetSeatStats      = "getSeatStats"
	CmdGetAvailableSeats = "getAvailableSeats"
	CmdGetBookedSeats    = "getBookedSeats"
	CmdBookSeats         = "bookSeats"
	CmdCancelBooking     = "cancelBooking"
	CmdGetBooking        = "getBooking"
	CmdGetAllBookings    = "getAllBookings"
	CmdGetUserBookings   = "getUserBookings"
	CmdReserveSeat       = "reserveSeat"
	CmdReleaseSeat       = "releaseSeat"
	CmdFindRoutePath     = "findRoutePath"
	CmdFindRoute         = "findRoute"
	CmdListRoutes        = "listRoutes"
	CmdCalculateFare     = "calculateFare"
	CmdAudit             = "audit"
)

// Request is one command with its operation-specific fields. Numeric
// fields accept JSON numbers or numeric strings.
type Request struct {
	Cmd          string            `json:"cmd"`
	UserID       string            `json:"userID,omitempty"`
	Name         string            `json:"name,omitempty"`
	Email        string            `json:"email,omitempty"`
	RouteID      models.FlexNumber `json:"routeID"`
	RouteInfo    string            `json:"routeInfo,omitempty"`
	SeatID       string            `json:"seatID,omitempty"`
	SeatIDs      []string          `json:"seatIDs,omitempty"`
	BookingID    string            `json:"bookingID,omitempty"`
	PricePerSeat models.FlexNumber `json:"pricePerSeat"`
	TotalSeats   models.FlexNumber `json:"totalSeats"`
	From         string            `json:"from,omitempty"`
	To           string            `json:"to,omitempty"`
	Strategy     string            `json:"strategy,omitempty"`
	Distance     models.FlexNumber `json:"distance"`
}

// DecodeRequest reads exactly one JSON request object
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			return req, fmt.Errorf("empty request")
		}
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

// needsLedger reports whether a command must load users, seats and bookings
func needsLedger(cmd string) bool {
	switch cmd {
	case CmdFindRoutePath, CmdFindRoute, CmdListRoutes, CmdCalculateFare:
		return false
	}
	return true
}
