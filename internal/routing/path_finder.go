package routing

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/smarttransit/route-ledger/internal/models"
)

// Strategy names accepted by StrategyFor
const (
	StrategyHops     = "hops"
	StrategyDistance = "distance"
	StrategyPrice    = "price"
)

// PathFinder finds one itinerary between two stops. An empty result means
// no itinerary: start equals end, start has no outgoing segments, or end
// is unreachable.
type PathFinder interface {
	Name() string
	FindPath(g *Graph, start, end string) []int
}

// StrategyFor resolves a strategy name; empty selects fewest hops
func StrategyFor(name string) (PathFinder, error) {
	switch StopKey(name) {
	case "", StrategyHops:
		return FewestHops{}, nil
	case StrategyDistance:
		return LowestCost{Label: StrategyDistance, Weight: ByDistance}, nil
	case StrategyPrice:
		return LowestCost{Label: StrategyPrice, Weight: ByTicketPrice}, nil
	default:
		return nil, fmt.Errorf("unknown route strategy %q", name)
	}
}

// FewestHops is a breadth-first search. Stops are marked visited when
// enqueued so each is expanded at most once; ties follow adjacency order.
type FewestHops struct{}

// Name implements PathFinder
func (FewestHops) Name() string { return StrategyHops }

type hopState struct {
	stop string
	path []int
}

// FindPath implements PathFinder
func (FewestHops) FindPath(g *Graph, start, end string) []int {
	startKey, endKey := StopKey(start), StopKey(end)
	if startKey == endKey || len(g.adjacency[startKey]) == 0 {
		return []int{}
	}

	visited := map[string]bool{startKey: true}
	queue := []hopState{{stop: startKey, path: []int{}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, id := range g.adjacency[cur.stop] {
			next := StopKey(g.segments[id].To)
			if visited[next] {
				continue
			}
			path := make([]int, len(cur.path)+1)
			copy(path, cur.path)
			path[len(cur.path)] = id

			if next == endKey {
				return path
			}
			visited[next] = true
			queue = append(queue, hopState{stop: next, path: path})
		}
	}
	return []int{}
}

// Weight returns the cost of traversing one segment
type Weight func(s *models.RouteSegment) float64

// ByDistance weighs segments by distance
func ByDistance(s *models.RouteSegment) float64 { return s.Distance }

// ByTicketPrice weighs segments by ticket price
func ByTicketPrice(s *models.RouteSegment) float64 { return s.TicketPrice }

// LowestCost is Dijkstra's algorithm over the segment weights. Only strict
// improvements replace a known path, so ties keep the earlier adjacency entry.
type LowestCost struct {
	Label  string
	Weight Weight
}

// Name implements PathFinder
func (l LowestCost) Name() string { return l.Label }

type costItem struct {
	stop  string
	cost  float64
	order int
}

type costQueue []costItem

func (q costQueue) Len() int { return len(q) }
func (q costQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].order < q[j].order
}
func (q costQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *costQueue) Push(x interface{}) { *q = append(*q, x.(costItem)) }
func (q *costQueue) Pop() interface{} {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// FindPath implements PathFinder
func (l LowestCost) FindPath(g *Graph, start, end string) []int {
	startKey, endKey := StopKey(start), StopKey(end)
	if startKey == endKey || len(g.adjacency[startKey]) == 0 {
		return []int{}
	}

	dist := map[string]float64{startKey: 0}
	via := map[string]int{}
	prev := map[string]string{}
	done := map[string]bool{}

	order := 0
	pq := &costQueue{{stop: startKey}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(costItem)
		if done[cur.stop] {
			continue
		}
		done[cur.stop] = true
		if cur.stop == endKey {
			break
		}

		for _, id := range g.adjacency[cur.stop] {
			seg := g.segments[id]
			next := StopKey(seg.To)
			if done[next] {
				continue
			}
			w := math.Max(l.Weight(seg), 0)
			cand := cur.cost + w
			if known, ok := dist[next]; ok && cand >= known {
				continue
			}
			dist[next] = cand
			via[next] = id
			prev[next] = cur.stop
			order++
			heap.Push(pq, costItem{stop: next, cost: cand, order: order})
		}
	}

	if !done[endKey] {
		return []int{}
	}
	path := []int{}
	for stop := endKey; stop != startKey; stop = prev[stop] {
		path = append([]int{via[stop]}, path...)
	}
	return path
}
