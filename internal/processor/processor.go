// Package processor executes one ledger command as a complete cycle:
// acquire the writer lock, load the ledger, run the command, persist and
// release.
package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/route-ledger/internal/events"
	"github.com/smarttransit/route-ledger/internal/lock"
	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/routing"
	"github.com/smarttransit/route-ledger/internal/services"
	"github.com/smarttransit/route-ledger/internal/storage"
)

// Options wires a processor to its collaborators
type Options struct {
	Store        storage.Store
	Routes       storage.RouteSource
	Locker       lock.Locker
	Publisher    events.Publisher
	Logger       *logrus.Logger
	DefaultSeats int
	Clock        func() time.Time
}

// Processor maps requests onto ledger and route operations
type Processor struct {
	store        storage.Store
	routes       storage.RouteSource
	locker       lock.Locker
	publisher    events.Publisher
	logger       *logrus.Logger
	fares        *services.FareService
	defaultSeats int
	clock        func() time.Time
}

// New creates a processor
func New(opts Options) *Processor {
	p := &Processor{
		store:        opts.Store,
		routes:       opts.Routes,
		locker:       opts.Locker,
		publisher:    opts.Publisher,
		logger:       opts.Logger,
		fares:        services.NewFareService(),
		defaultSeats: opts.DefaultSeats,
		clock:        opts.Clock,
	}
	if p.locker == nil {
		p.locker = lock.NoopLocker{}
	}
	if p.publisher == nil {
		p.publisher = events.NoopPublisher{}
	}
	if p.logger == nil {
		p.logger = logrus.StandardLogger()
	}
	if p.defaultSeats <= 0 {
		p.defaultSeats = models.DefaultSeatsPerRoute
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// Execute runs one request through a full load, compute and save cycle
func (p *Processor) Execute(ctx context.Context, req Request) Result {
	cmd := strings.TrimSpace(req.Cmd)
	log := p.logger.WithFields(logrus.Fields{
		"cmd":        cmd,
		"request_id": uuid.New().String(),
	})

	if cmd == "" {
		return failed(validationError("No command specified"))
	}

	start := time.Now()
	var res Result
	if needsLedger(cmd) {
		res = p.executeLedger(ctx, cmd, req)
	} else {
		res = p.executeRoutes(ctx, cmd, req)
	}

	entry := log.WithField("duration", time.Since(start).String())
	switch {
	case res.OK():
		entry.Debug("Command completed")
	case res.ExitCode() == ExitFatal:
		entry.WithError(res.Err).Error("Command failed with storage error")
	default:
		entry.WithError(res.Err).Info("Command rejected")
	}
	return res
}

// Audit loads the ledger under the lock and checks its invariants
func (p *Processor) Audit(ctx context.Context) (services.AuditReport, error) {
	res := p.Execute(ctx, Request{Cmd: CmdAudit})
	if res.Err != nil {
		return services.AuditReport{}, res.Err
	}
	return res.Body.(services.AuditReport), nil
}

func (p *Processor) executeLedger(ctx context.Context, cmd string, req Request) Result {
	if !knownLedgerCommand(cmd) {
		return failed(validationError("Unknown command: %s", cmd))
	}

	release, err := p.locker.Acquire(ctx)
	if err != nil {
		return failed(&services.StorageError{Op: "acquire lock", Err: err})
	}
	defer func() {
		if err := release(); err != nil {
			p.logger.WithError(err).Warn("Failed to release ledger lock")
		}
	}()

	repo, err := storage.LoadLedger(ctx, p.store, p.routes)
	if err != nil {
		return failed(&services.StorageError{Op: "load ledger", Err: err})
	}

	ledger := services.NewLedgerService(repo, p.store, p.publisher, p.logger)
	ledger.SetClock(p.clock)
	ledger.SetDefaultSeats(p.defaultSeats)

	return p.dispatch(ctx, ledger, cmd, req)
}

func (p *Processor) dispatch(ctx context.Context, ledger *services.LedgerService, cmd string, req Request) Result {
	switch cmd {
	case CmdCreateUser:
		user, err := ledger.CreateUser(ctx, req.UserID, req.Name, req.Email)
		return render(user, err)

	case CmdGetUser:
		user, err := ledger.GetUser(req.UserID)
		return render(user, err)

	case CmdUpdateUser:
		user, err := ledger.UpdateUser(ctx, req.UserID, req.Name, req.Email)
		return render(user, err)

	case CmdGetAllUsers:
		return succeeded(ledger.ListUsers())

	case CmdInitSeats:
		routeID, err := routeIDOf(req)
		if err != nil {
			return failed(err)
		}
		total := 0
		if req.TotalSeats.IsSet() {
			if total, err = req.TotalSeats.Int(); err != nil {
				return failed(validationError("totalSeats must be an integer"))
			}
		}
		stats, err := ledger.InitializeSeatsForRoute(ctx, routeID, total)
		if err != nil {
			return failed(err)
		}
		return succeeded(map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("Initialized %d seats for route %d", stats.Total, routeID),
			"stats":   stats,
		})

	case CmdGetSeats, CmdGetAvailableSeats, CmdGetBookedSeats, CmdGetSeatStats:
		routeID, err := routeIDOf(req)
		if err != nil {
			return failed(err)
		}
		switch cmd {
		case CmdGetAvailableSeats:
			return succeeded(ledger.GetAvailableSeats(routeID))
		case CmdGetBookedSeats:
			return succeeded(ledger.GetBookedSeats(routeID))
		case CmdGetSeatStats:
			return succeeded(ledger.GetSeatStats(routeID))
		default:
			return succeeded(ledger.GetSeats(routeID))
		}

	case CmdBookSeats:
		routeID, err := routeIDOf(req)
		if err != nil {
			return failed(err)
		}
		booking, err := ledger.BookSeats(ctx, services.BookSeatsInput{
			RouteID:      routeID,
			RouteInfo:    req.RouteInfo,
			UserID:       req.UserID,
			SeatIDs:      req.SeatIDs,
			PricePerSeat: req.PricePerSeat.Float(),
		})
		if err != nil {
			return failed(err)
		}
		return succeeded(map[string]interface{}{
			"success":    true,
			"bookingID":  booking.BookingID,
			"totalPrice": booking.TotalPrice,
			"booking":    booking,
		})

	case CmdCancelBooking:
		booking, err := ledger.CancelBooking(ctx, req.BookingID, req.UserID)
		if err != nil {
			return failed(err)
		}
		return succeeded(map[string]interface{}{
			"success":   true,
			"bookingID": booking.BookingID,
			"refund":    booking.TotalPrice,
			"booking":   booking,
		})

	case CmdGetBooking:
		booking, err := ledger.GetBooking(req.BookingID)
		return render(booking, err)

	case CmdGetAllBookings:
		return succeeded(ledger.ListBookings())

	case CmdGetUserBookings:
		bookings, err := ledger.GetUserBookings(req.UserID)
		return render(bookings, err)

	case CmdReserveSeat, CmdReleaseSeat:
		op := ledger.ReserveSeat
		if cmd == CmdReleaseSeat {
			op = ledger.ReleaseSeat
		}
		seat, err := op(ctx, req.SeatID, req.UserID)
		if err != nil {
			return failed(err)
		}
		return succeeded(map[string]interface{}{
			"success": true,
			"seat":    seat,
		})

	case CmdAudit:
		audit := services.NewAuditService(p.logger)
		return succeeded(audit.Audit(ledger.Repository()))
	}

	return failed(validationError("Unknown command: %s", cmd))
}

// executeRoutes serves commands that only read the route fixture
func (p *Processor) executeRoutes(ctx context.Context, cmd string, req Request) Result {
	if cmd == CmdCalculateFare {
		if !req.Distance.IsSet() {
			return failed(validationError("distance is required"))
		}
		quote, err := p.fares.Quote(req.Distance.Float())
		return render(quote, err)
	}

	segments, err := p.routes.LoadRoutes(ctx)
	if err != nil {
		return failed(&services.StorageError{Op: "load routes", Err: err})
	}

	switch cmd {
	case CmdListRoutes:
		return succeeded(segments)
	case CmdFindRoutePath, CmdFindRoute:
		routes := services.NewRouteService(routing.NewGraph(segments), p.fares)
		itinerary, err := routes.FindRoute(req.From, req.To, req.Strategy)
		return render(itinerary, err)
	}
	return failed(validationError("Unknown command: %s", cmd))
}

func knownLedgerCommand(cmd string) bool {
	switch cmd {
	case CmdCreateUser, CmdGetUser, CmdUpdateUser, CmdGetAllUsers, CmdInitSeats,
		CmdGetSeats, CmdGetSeatStats, CmdGetAvailableSeats, CmdGetBookedSeats,
		CmdBookSeats, CmdCancelBooking, CmdGetBooking, CmdGetAllBookings,
		CmdGetUserBookings, CmdReserveSeat, CmdReleaseSeat, CmdAudit:
		return true
	}
	return false
}

func routeIDOf(req Request) (int, error) {
	routeID, err := req.RouteID.Int()
	if err != nil {
		return 0, validationError("routeID must be an integer")
	}
	return routeID, nil
}

func validationError(format string, args ...interface{}) error {
	return &services.LedgerError{Kind: services.ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// render turns a (value, error) pair into a Result
func render(body interface{}, err error) Result {
	if err != nil {
		return failed(err)
	}
	return succeeded(body)
}
