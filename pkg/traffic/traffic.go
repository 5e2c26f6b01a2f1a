package traffic

// SpeedGroup buckets the observed speed on a road segment relative to its
// free-flow speed.
type SpeedGroup uint8

const (
	G0 SpeedGroup = iota // standstill
	G1
	G2
	G3
	G4
	G5 // free flow
	TempBlock
	Unknown
)

// Factor returns the multiplier applied to the effective speed of a segment
// colored with this group.
func (g SpeedGroup) Factor() float64 {
	switch g {
	case G0:
		return 0.1
	case G1:
		return 0.3
	case G2:
		return 0.5
	case G3:
		return 0.7
	case G4:
		return 0.85
	case G5:
		return 1.0
	case TempBlock:
		return 0.01
	default:
		return 1.0
	}
}

// EdgeKey addresses one directed road segment inside a region. Forward means
// travel in the feature's point order.
type EdgeKey struct {
	FeatureID    uint32
	SegmentIndex uint32
	Forward      bool
}

func NewEdgeKey(featureID, segmentIndex uint32, forward bool) EdgeKey {
	return EdgeKey{FeatureID: featureID, SegmentIndex: segmentIndex, Forward: forward}
}

// Coloring is an immutable congestion snapshot for one region. A search takes
// the snapshot once at start and never observes later updates.
type Coloring map[EdgeKey]SpeedGroup

// Lookup returns the speed group for the segment, Unknown when the snapshot
// has no data for it.
func (c Coloring) Lookup(key EdgeKey) SpeedGroup {
	if c == nil {
		return Unknown
	}
	if g, ok := c[key]; ok {
		return g
	}
	return Unknown
}
