package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/smarttransit/route-ledger/internal/models"
)

// RouteFixture reads route segments from the hand-authored routes file:
//
//	from|to|distance[|ticketPrice[|coordsJSON]]
//
// Blank lines and lines starting with '#' are skipped. The engine never
// writes this file.
type RouteFixture struct {
	path string
}

// NewRouteFixture creates a RouteFixture for path
func NewRouteFixture(path string) *RouteFixture {
	return &RouteFixture{path: path}
}

// LoadRoutes parses the fixture. A missing file yields no routes.
func (f *RouteFixture) LoadRoutes(ctx context.Context) ([]*models.RouteSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*models.RouteSegment{}, nil
		}
		return nil, fmt.Errorf("failed to open route fixture: %w", err)
	}
	defer file.Close()
	return ParseRoutes(file)
}

// ParseRoutes parses fixture lines. Route IDs are assigned 1-based over the
// accepted lines in file order.
func ParseRoutes(r io.Reader) ([]*models.RouteSegment, error) {
	routes := []*models.RouteSegment{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	nextID := 1
	for scanner.Scan() {
		seg, ok := parseRouteLine(scanner.Text())
		if !ok {
			continue
		}
		seg.RouteID = nextID
		nextID++
		routes = append(routes, seg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read route fixture: %w", err)
	}
	return routes, nil
}

func parseRouteLine(line string) (*models.RouteSegment, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	parts := strings.Split(line, fieldSep)
	if len(parts) < 3 {
		return nil, false
	}
	distance, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return nil, false
	}

	seg := &models.RouteSegment{
		From:        strings.TrimSpace(parts[0]),
		To:          strings.TrimSpace(parts[1]),
		Distance:    distance,
		TicketPrice: models.DefaultTicketPrice(distance),
		Coords:      []models.Coordinate{},
	}
	if len(parts) > 3 {
		if p, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64); err == nil {
			seg.TicketPrice = p
		}
	}
	if len(parts) > 4 {
		// coords JSON never contains '|', but rejoin in case of stray separators
		raw := strings.TrimSpace(strings.Join(parts[4:], fieldSep))
		var coords []models.Coordinate
		if raw != "" && json.Unmarshal([]byte(raw), &coords) == nil {
			seg.Coords = coords
		}
	}
	return seg, true
}
