package services

import (
	"math"
	"strings"

	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/smarttransit/route-ledger/internal/routing"
)

// RouteService answers itinerary queries over the route graph
type RouteService struct {
	graph *routing.Graph
	fares *FareService
}

// NewRouteService creates a route service for a built graph
func NewRouteService(graph *routing.Graph, fares *FareService) *RouteService {
	return &RouteService{graph: graph, fares: fares}
}

// FindRoute finds one itinerary from one stop to another with the named
// strategy (hops, distance or price)
func (s *RouteService) FindRoute(from, to, strategy string) (models.Itinerary, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return models.Itinerary{}, validation("from and to are required")
	}
	finder, err := routing.StrategyFor(strategy)
	if err != nil {
		return models.Itinerary{}, validation("%s", err.Error())
	}
	if routing.StopKey(from) == routing.StopKey(to) {
		return models.Itinerary{}, validation("from and to must be different stops")
	}

	path := finder.FindPath(s.graph, from, to)
	if len(path) == 0 {
		return models.Itinerary{}, notFound("no route found from %s to %s", from, to)
	}

	it := s.graph.Itinerary(path)
	it.Distance = math.Round(it.Distance*100) / 100
	it.Fare = s.fares.Fare(it.Distance)
	it.Time = s.fares.TravelTime(it.Distance)
	it.Strategy = finder.Name()
	return it, nil
}
