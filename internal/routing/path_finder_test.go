package routing

import (
	"testing"

	"github.com/smarttransit/route-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seg(id int, from, to string, distance, price float64) *models.RouteSegment {
	return &models.RouteSegment{RouteID: id, From: from, To: to, Distance: distance, TicketPrice: price}
}

func TestFewestHops_DirectedChain(t *testing.T) {
	g := NewGraph([]*models.RouteSegment{
		seg(1, "A", "B", 10, 5),
		seg(2, "B", "C", 10, 5),
	})
	finder := FewestHops{}

	assert.Equal(t, []int{1, 2}, finder.FindPath(g, "A", "C"))
	assert.Equal(t, []int{1, 2}, finder.FindPath(g, "a", " c "))
	assert.Empty(t, finder.FindPath(g, "C", "A"), "segments are directed")
	assert.Empty(t, finder.FindPath(g, "A", "A"))
	assert.Empty(t, finder.FindPath(g, "A", "Z"))
	assert.Empty(t, finder.FindPath(g, "Z", "A"))
}

func TestFewestHops_PrefersFewerSegments(t *testing.T) {
	g := NewGraph([]*models.RouteSegment{
		seg(1, "A", "B", 1, 1),
		seg(2, "B", "C", 1, 1),
		seg(3, "C", "D", 1, 1),
		seg(4, "A", "D", 500, 900),
	})

	assert.Equal(t, []int{4}, FewestHops{}.FindPath(g, "A", "D"))
}

func TestFewestHops_TiesFollowFileOrder(t *testing.T) {
	g := NewGraph([]*models.RouteSegment{
		seg(3, "X", "D", 1, 1),
		seg(1, "A", "X", 1, 1),
		seg(2, "A", "Y", 1, 1),
		seg(4, "Y", "D", 1, 1),
	})

	assert.Equal(t, []int{1, 3}, FewestHops{}.FindPath(g, "A", "D"))
}

func TestLowestCost(t *testing.T) {
	g := NewGraph([]*models.RouteSegment{
		seg(1, "A", "B", 1, 50),
		seg(2, "B", "C", 1, 50),
		seg(3, "C", "D", 1, 50),
		seg(4, "A", "D", 500, 20),
	})

	byDistance, err := StrategyFor("distance")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, byDistance.FindPath(g, "A", "D"))

	byPrice, err := StrategyFor("PRICE")
	require.NoError(t, err)
	assert.Equal(t, []int{4}, byPrice.FindPath(g, "A", "D"))

	assert.Empty(t, byDistance.FindPath(g, "D", "A"))
	assert.Empty(t, byDistance.FindPath(g, "A", "a"))
}

func TestLowestCost_TieKeepsFirstAdjacency(t *testing.T) {
	g := NewGraph([]*models.RouteSegment{
		seg(1, "A", "X", 5, 0),
		seg(2, "A", "Y", 5, 0),
		seg(3, "X", "D", 5, 0),
		seg(4, "Y", "D", 5, 0),
	})

	finder := LowestCost{Label: StrategyDistance, Weight: ByDistance}
	assert.Equal(t, []int{1, 3}, finder.FindPath(g, "A", "D"))
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		input string
		name  string
		isErr bool
	}{
		{"", StrategyHops, false},
		{"hops", StrategyHops, false},
		{"distance", StrategyDistance, false},
		{"price", StrategyPrice, false},
		{"fastest", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			finder, err := StrategyFor(tc.input)
			if tc.isErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.name, finder.Name())
		})
	}
}

func TestGraph_Itinerary(t *testing.T) {
	g := NewGraph([]*models.RouteSegment{
		seg(1, "Colombo", "Kandy", 115, 350),
		seg(2, "Kandy", "Ella", 140, 400.1),
	})

	it := g.Itinerary([]int{1, 2})
	assert.Equal(t, []string{"Colombo", "Kandy", "Ella"}, it.Path)
	assert.Equal(t, []int{1, 2}, it.RouteIDs)
	assert.Equal(t, 255.0, it.Distance)
	assert.Equal(t, 750.1, it.TicketPrice)
	assert.Len(t, it.Segments, 2)

	empty := g.Itinerary(nil)
	assert.Empty(t, empty.Path)
	assert.Equal(t, []int{1}, g.Outgoing("COLOMBO"))
}
