// Package routing builds the directed stop graph from route segments and
// searches it for itineraries.
package routing

import (
	"sort"
	"strings"

	"github.com/smarttransit/route-ledger/internal/models"
)

// Graph maps a lower-cased stop name to the routes leaving it, in route ID order
type Graph struct {
	adjacency map[string][]int
	segments  map[int]*models.RouteSegment
}

// NewGraph builds the graph from the loaded segments
func NewGraph(segments []*models.RouteSegment) *Graph {
	ordered := append([]*models.RouteSegment(nil), segments...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].RouteID < ordered[j].RouteID })

	g := &Graph{
		adjacency: make(map[string][]int),
		segments:  make(map[int]*models.RouteSegment, len(ordered)),
	}
	for _, s := range ordered {
		key := StopKey(s.From)
		g.adjacency[key] = append(g.adjacency[key], s.RouteID)
		g.segments[s.RouteID] = s
	}
	return g
}

// StopKey normalizes a stop name for lookup
func StopKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Outgoing returns the route IDs leaving a stop
func (g *Graph) Outgoing(stop string) []int {
	return g.adjacency[StopKey(stop)]
}

// Segment returns a route segment by ID or nil
func (g *Graph) Segment(routeID int) *models.RouteSegment {
	return g.segments[routeID]
}

// Itinerary expands route IDs into a full itinerary with totals
func (g *Graph) Itinerary(routeIDs []int) models.Itinerary {
	it := models.Itinerary{
		Path:     []string{},
		Segments: []models.RouteSegment{},
		RouteIDs: []int{},
	}
	for i, id := range routeIDs {
		s := g.segments[id]
		if s == nil {
			continue
		}
		if i == 0 {
			it.Path = append(it.Path, s.From)
		}
		it.Path = append(it.Path, s.To)
		it.Segments = append(it.Segments, *s)
		it.RouteIDs = append(it.RouteIDs, id)
		it.Distance += s.Distance
		it.TicketPrice += s.TicketPrice
	}
	it.TicketPrice = models.RoundMoney(it.TicketPrice)
	return it
}
