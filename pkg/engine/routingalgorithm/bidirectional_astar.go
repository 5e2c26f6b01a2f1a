package routingalgorithm

import (
	"math"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/util"
)

type searchContext[V comparable] struct {
	queue    *datastructure.MinHeap[V]
	dist     map[V]float64
	cameFrom map[V]V
	settled  map[V]struct{}
}

func newSearchContext[V comparable](origin V) *searchContext[V] {
	ctx := &searchContext[V]{
		queue:    datastructure.NewMinHeap[V](),
		dist:     map[V]float64{origin: 0},
		cameFrom: make(map[V]V),
		settled:  make(map[V]struct{}),
	}
	ctx.queue.Insert(datastructure.PriorityQueueNode[V]{Rank: 0, Item: origin})
	return ctx
}

// FindPathBidirectional runs best-first searches from both ends at once,
// alternating by the cheaper frontier top. Each frontier ranks vertices by
// true distance plus the admissible heuristic toward its own target. When the
// frontiers meet, the search keeps expanding until neither frontier can still
// contain a cheaper meeting vertex, then merges the two partial paths.
//
// The delegate is polled at the top of every expansion step, so cancellation
// takes effect within one step. onVisit fires after each edge relaxation with
// the edge endpoints in forward orientation.
func FindPathBidirectional[V comparable](g Graph[V], start, finish V,
	delegate Delegate, onVisit VisitFunc[V]) (RoutingResult[V], Result) {
	if start == finish {
		return RoutingResult[V]{Path: []V{start}, Distance: 0}, Ok
	}

	forward := newSearchContext[V](start)
	backward := newSearchContext[V](finish)

	estimate := math.MaxFloat64
	var bestVertex V
	haveMeeting := false

	for forward.queue.Size() > 0 || backward.queue.Size() > 0 {
		if delegate != nil && delegate.IsCancelled() {
			return RoutingResult[V]{}, Cancelled
		}

		topF, errF := forward.queue.GetMin()
		topB, errB := backward.queue.GetMin()

		// no frontier can still hold a cheaper meeting vertex
		if haveMeeting &&
			(errF != nil || topF.Rank >= estimate) &&
			(errB != nil || topB.Rank >= estimate) {
			break
		}

		expandForward := errB != nil || (errF == nil && topF.Rank <= topB.Rank)
		if expandForward {
			expandStep(g, forward, backward, start, finish, true, onVisit,
				&estimate, &bestVertex, &haveMeeting)
		} else {
			expandStep(g, backward, forward, start, finish, false, onVisit,
				&estimate, &bestVertex, &haveMeeting)
		}
	}

	if !haveMeeting {
		return RoutingResult[V]{}, NoPath
	}

	path := mergePaths(forward, backward, bestVertex)
	return RoutingResult[V]{Path: path, Distance: estimate}, Ok
}

func expandStep[V comparable](g Graph[V], cur, other *searchContext[V],
	start, finish V, isForward bool, onVisit VisitFunc[V],
	estimate *float64, bestVertex *V, haveMeeting *bool) {
	node, err := cur.queue.ExtractMin()
	if err != nil {
		return
	}
	u := node.Item
	if _, done := cur.settled[u]; done {
		return
	}
	cur.settled[u] = struct{}{}

	var edges []Edge[V]
	if isForward {
		edges = g.GetOutgoingEdges(u)
	} else {
		edges = g.GetIngoingEdges(u)
	}

	for _, edge := range edges {
		v := edge.To
		if _, done := cur.settled[v]; done {
			continue
		}

		newDist := cur.dist[u] + edge.Weight
		oldDist, known := cur.dist[v]
		if !known || newDist < oldDist {
			cur.dist[v] = newDist
			cur.cameFrom[v] = u

			var rank float64
			if isForward {
				rank = newDist + g.HeuristicCostEstimate(v, finish)
			} else {
				rank = newDist + g.HeuristicCostEstimate(start, v)
			}
			queued := datastructure.PriorityQueueNode[V]{Rank: rank, Item: v}
			if cur.queue.Contains(v) {
				if err := cur.queue.DecreaseKey(queued); err != nil {
					cur.queue.Insert(queued)
				}
			} else {
				cur.queue.Insert(queued)
			}
		}

		if otherDist, met := other.dist[v]; met {
			if pathDist := cur.dist[v] + otherDist; pathDist < *estimate {
				*estimate = pathDist
				*bestVertex = v
				*haveMeeting = true
			}
		}

		if onVisit != nil {
			if isForward {
				onVisit(u, v)
			} else {
				onVisit(v, u)
			}
		}
	}
}

func mergePaths[V comparable](forward, backward *searchContext[V], meeting V) []V {
	// walk back to the start, then forward to the finish
	head := []V{meeting}
	for cur := meeting; ; {
		prev, ok := forward.cameFrom[cur]
		if !ok {
			break
		}
		head = append(head, prev)
		cur = prev
	}
	head = util.ReverseG(head)

	for cur := meeting; ; {
		next, ok := backward.cameFrom[cur]
		if !ok {
			break
		}
		head = append(head, next)
		cur = next
	}
	return head
}
