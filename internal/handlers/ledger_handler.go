package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/processor"
)

// Executor runs one ledger command cycle
type Executor interface {
	Execute(ctx context.Context, req processor.Request) processor.Result
}

// LedgerHandler exposes ledger commands over HTTP. Each request is one
// independent load, compute and save cycle.
type LedgerHandler struct {
	executor Executor
	logger   *logrus.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(executor Executor, logger *logrus.Logger) *LedgerHandler {
	return &LedgerHandler{
		executor: executor,
		logger:   logger,
	}
}

// bookSeatsBody also accepts the browser client's snake_case route_info
type bookSeatsBody struct {
	processor.Request
	RouteInfoSnake string `json:"route_info"`
}

// CreateUser handles POST /api/createUser
func (h *LedgerHandler) CreateUser(c *gin.Context) {
	h.executeBody(c, processor.CmdCreateUser)
}

// GetUser handles GET /api/getUser/:userID
func (h *LedgerHandler) GetUser(c *gin.Context) {
	h.execute(c, processor.Request{Cmd: processor.CmdGetUser, UserID: c.Param("userID")})
}

// UpdateUser handles POST /api/updateUser
func (h *LedgerHandler) UpdateUser(c *gin.Context) {
	h.executeBody(c, processor.CmdUpdateUser)
}

// ListUsers handles GET /api/listUsers
func (h *LedgerHandler) ListUsers(c *gin.Context) {
	h.execute(c, processor.Request{Cmd: processor.CmdGetAllUsers})
}

// InitSeats handles POST /api/initSeats. routeID defaults to 1.
func (h *LedgerHandler) InitSeats(c *gin.Context) {
	req, ok := h.bind(c, processor.CmdInitSeats)
	if !ok {
		return
	}
	if !req.RouteID.IsSet() {
		req.RouteID = models.NewFlexNumber(1)
	}
	h.execute(c, req)
}

// GetSeats handles GET /api/getSeats/:routeID
func (h *LedgerHandler) GetSeats(c *gin.Context) {
	h.executeRoute(c, processor.CmdGetSeats, c.Param("routeID"))
}

// GetSeatStats handles GET /api/getSeatStats/:routeID
func (h *LedgerHandler) GetSeatStats(c *gin.Context) {
	h.executeRoute(c, processor.CmdGetSeatStats, c.Param("routeID"))
}

// GetAvailableSeats handles GET /api/getAvailableSeats/:routeID
func (h *LedgerHandler) GetAvailableSeats(c *gin.Context) {
	h.executeRoute(c, processor.CmdGetAvailableSeats, c.Param("routeID"))
}

// GetBookedSeats handles GET /api/getBookedSeats?route_id=. route_id defaults to 1.
func (h *LedgerHandler) GetBookedSeats(c *gin.Context) {
	h.executeRoute(c, processor.CmdGetBookedSeats, c.DefaultQuery("route_id", "1"))
}

// BookSeats handles POST /api/bookSeats
func (h *LedgerHandler) BookSeats(c *gin.Context) {
	var body bookSeatsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badRequest(c, err)
		return
	}
	req := body.Request
	req.Cmd = processor.CmdBookSeats
	if req.RouteInfo == "" {
		req.RouteInfo = body.RouteInfoSnake
	}
	h.execute(c, req)
}

// CancelBooking handles POST /api/cancelBooking
func (h *LedgerHandler) CancelBooking(c *gin.Context) {
	h.executeBody(c, processor.CmdCancelBooking)
}

// GetBooking handles GET /api/getBooking/:bookingID
func (h *LedgerHandler) GetBooking(c *gin.Context) {
	h.execute(c, processor.Request{Cmd: processor.CmdGetBooking, BookingID: c.Param("bookingID")})
}

// ListBookings handles GET /api/listBookings
func (h *LedgerHandler) ListBookings(c *gin.Context) {
	h.execute(c, processor.Request{Cmd: processor.CmdGetAllBookings})
}

// GetUserBookings handles GET /api/getUserBookings/:userID
func (h *LedgerHandler) GetUserBookings(c *gin.Context) {
	h.execute(c, processor.Request{Cmd: processor.CmdGetUserBookings, UserID: c.Param("userID")})
}

// ReserveSeat handles POST /api/reserveSeat
func (h *LedgerHandler) ReserveSeat(c *gin.Context) {
	h.executeBody(c, processor.CmdReserveSeat)
}

// ReleaseSeat handles POST /api/releaseSeat
func (h *LedgerHandler) ReleaseSeat(c *gin.Context) {
	h.executeBody(c, processor.CmdReleaseSeat)
}

// ListRoutes handles GET /api/listRoutes
func (h *LedgerHandler) ListRoutes(c *gin.Context) {
	h.execute(c, processor.Request{Cmd: processor.CmdListRoutes})
}

// FindRoute handles GET /api/findRoute?from=&to=&strategy=
func (h *LedgerHandler) FindRoute(c *gin.Context) {
	var query models.FindRouteRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, err)
		return
	}
	h.execute(c, processor.Request{
		Cmd:      processor.CmdFindRoute,
		From:     query.From,
		To:       query.To,
		Strategy: query.Strategy,
	})
}

// CalculateFare handles GET /api/calculateFare?distance=
func (h *LedgerHandler) CalculateFare(c *gin.Context) {
	req := processor.Request{Cmd: processor.CmdCalculateFare}
	if raw, ok := c.GetQuery("distance"); ok {
		distance, err := flexParam(raw)
		if err != nil {
			h.badRequest(c, err)
			return
		}
		req.Distance = distance
	}
	h.execute(c, req)
}

// Audit handles GET /api/audit
func (h *LedgerHandler) Audit(c *gin.Context) {
	h.execute(c, processor.Request{Cmd: processor.CmdAudit})
}

func (h *LedgerHandler) bind(c *gin.Context, cmd string) (processor.Request, bool) {
	var req processor.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return req, false
	}
	req.Cmd = cmd
	return req, true
}

func (h *LedgerHandler) executeBody(c *gin.Context, cmd string) {
	if req, ok := h.bind(c, cmd); ok {
		h.execute(c, req)
	}
}

func (h *LedgerHandler) executeRoute(c *gin.Context, cmd, rawRouteID string) {
	routeID, err := flexParam(rawRouteID)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	h.execute(c, processor.Request{Cmd: cmd, RouteID: routeID})
}

func (h *LedgerHandler) execute(c *gin.Context, req processor.Request) {
	res := h.executor.Execute(c.Request.Context(), req)
	if !res.OK() && res.ExitCode() == processor.ExitFatal {
		h.logger.WithError(res.Err).WithField("cmd", req.Cmd).Error("Ledger command failed")
	}
	c.JSON(res.HTTPStatus(), res.Payload())
}

func (h *LedgerHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}

// flexParam parses a path or query value the way JSON numeric strings are parsed
func flexParam(raw string) (models.FlexNumber, error) {
	var n models.FlexNumber
	err := n.UnmarshalJSON([]byte(strconv.Quote(raw)))
	return n, err
}
