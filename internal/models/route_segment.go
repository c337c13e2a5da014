package models

// Coordinate is a point on a segment's drawn polyline
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteSegment represents one directed hop between two named stops
type RouteSegment struct {
	RouteID     int          `json:"id"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Distance    float64      `json:"distance"`
	TicketPrice float64      `json:"ticket_price"`
	Coords      []Coordinate `json:"coords"`
}

// DefaultTicketPrice is the price applied when a fixture line carries none
func DefaultTicketPrice(distance float64) float64 {
	return distance * 0.5
}

// DisplayName returns a formatted segment name
func (r *RouteSegment) DisplayName() string {
	return r.From + " → " + r.To
}

// FindRouteRequest is the query for an itinerary between two stops
type FindRouteRequest struct {
	From     string `form:"from" json:"from" binding:"required"`
	To       string `form:"to" json:"to" binding:"required"`
	Strategy string `form:"strategy" json:"strategy"`
}

// Itinerary is an ordered list of segments connecting two stops
type Itinerary struct {
	Path        []string       `json:"path"`
	Segments    []RouteSegment `json:"segments"`
	RouteIDs    []int          `json:"routeIDs"`
	Distance    float64        `json:"distance"`
	Time        float64        `json:"time"`
	Fare        float64        `json:"fare"`
	TicketPrice float64        `json:"ticketPrice"`
	Strategy    string         `json:"strategy"`
}
