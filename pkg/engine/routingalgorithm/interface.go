package routingalgorithm

// Edge is one weighted transition of the search space.
type Edge[V comparable] struct {
	To     V
	Weight float64
}

// Graph is the vertex/edge abstraction the bidirectional search runs on.
// Implementations wrap a loaded road graph plus the synthetic start/finish
// joints of one request.
type Graph[V comparable] interface {
	// GetOutgoingEdges expands v for the forward frontier.
	GetOutgoingEdges(v V) []Edge[V]
	// GetIngoingEdges expands v for the backward frontier: edges u -> v
	// reported as transitions to u.
	GetIngoingEdges(v V) []Edge[V]
	// HeuristicCostEstimate must be an admissible lower bound on the cost
	// from one vertex to another, or optimality is not guaranteed.
	HeuristicCostEstimate(from, to V) float64
}

// Delegate carries the caller's cooperative cancellation token. It is polled
// at the top of every expansion step.
type Delegate interface {
	IsCancelled() bool
}

// VisitFunc is invoked after each edge relaxation with the edge endpoints in
// forward orientation, for progress reporting and live UI feedback.
type VisitFunc[V comparable] func(from, to V)

type Result int

const (
	Ok Result = iota
	NoPath
	Cancelled
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case NoPath:
		return "no path"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RoutingResult is the found path (start to finish inclusive) and its cost.
type RoutingResult[V comparable] struct {
	Path     []V
	Distance float64
}
