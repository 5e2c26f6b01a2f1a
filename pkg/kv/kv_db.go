package kv

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/uber/h3-go/v4"

	"github.com/lintang-b-s/regionroute/pkg/datastructure"
	"github.com/lintang-b-s/regionroute/pkg/roadgraph"
)

var ErrEdgesNotFound = errors.New("edges not found")

const (
	h3Resolution = 9
	saveBatch    = 1000
)

// KVDB indexes road segments by h3 cell for coordinate-based lookup, backed
// by badger.
type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

func cellOf(lat, lon float64) h3.Cell {
	return h3.LatLngToCell(h3.NewLatLng(lat, lon), h3Resolution)
}

// BuildH3IndexedEdges groups one region's segments by the h3 cell of their
// midpoint and stores them in batches. Cells already holding another region's
// segments are merged, not overwritten.
func (k *KVDB) BuildH3IndexedEdges(ctx context.Context, region string,
	g *roadgraph.Graph) error {
	grouped := make(map[string][]datastructure.EdgeCandidate)
	for _, featureID := range g.FeatureIDs() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		road, _ := g.Road(featureID)
		for i := 0; i+1 < road.PointsCount(); i++ {
			segStart := road.Points[i]
			segEnd := road.Points[i+1]
			cell := cellOf((segStart.Lat+segEnd.Lat)/2, (segStart.Lon+segEnd.Lon)/2)
			grouped[cell.String()] = append(grouped[cell.String()], datastructure.EdgeCandidate{
				Region:   region,
				Point:    datastructure.NewRoadPoint(featureID, uint32(i)),
				SegStart: segStart,
				SegEnd:   segEnd,
			})
		}
	}

	keys := make([]string, 0, saveBatch)
	for key := range grouped {
		keys = append(keys, key)
		if len(keys) == saveBatch {
			if err := k.saveBatchEdges(ctx, keys, grouped); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if len(keys) > 0 {
		return k.saveBatchEdges(ctx, keys, grouped)
	}
	return nil
}

func (k *KVDB) saveBatchEdges(ctx context.Context, keys []string,
	grouped map[string][]datastructure.EdgeCandidate) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, key := range keys {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		edges := grouped[key]
		existing, err := k.get([]byte(key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if len(existing) > 0 {
			stored, err := decodeEdges(existing)
			if err != nil {
				return err
			}
			edges = append(stored, edges...)
		}

		val, err := encodeEdges(edges)
		if err != nil {
			return err
		}
		if err := batch.Set([]byte(key), val); err != nil {
			return err
		}
	}
	return batch.Flush()
}

func (k *KVDB) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

func (k *KVDB) edgesAtCell(cell h3.Cell) ([]datastructure.EdgeCandidate, error) {
	val, err := k.get([]byte(cell.String()))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeEdges(val)
}

// GetNearestRoadSegments returns the road segments around a coordinate,
// searching the home cell first, then a 1km ring, then progressively wider
// grid disks.
func (k *KVDB) GetNearestRoadSegments(lat, lon float64) ([]datastructure.EdgeCandidate, error) {
	home := cellOf(lat, lon)

	edges, err := k.edgesAtCell(home)
	if err != nil {
		return nil, err
	}

	if len(edges) == 0 {
		for _, cell := range kRingIndexesArea(lat, lon, 1) {
			if cell == home {
				continue
			}
			more, err := k.edgesAtCell(cell)
			if err != nil {
				return nil, err
			}
			edges = append(edges, more...)
		}
	}

	// no roads within 1km (airport, forest). widen the disk
	for lev := 1; lev <= 10 && len(edges) == 0; lev++ {
		for _, cell := range h3.GridDisk(home, lev) {
			if cell == home {
				continue
			}
			more, err := k.edgesAtCell(cell)
			if err != nil {
				return nil, err
			}
			edges = append(edges, more...)
		}
	}

	if len(edges) == 0 {
		return nil, ErrEdgesNotFound
	}
	return edges, nil
}

func kRingIndexesArea(lat, lon, searchRadiusKm float64) []h3.Cell {
	origin := cellOf(lat, lon)
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 0
	diskArea := originArea
	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}

	return h3.GridDisk(origin, radius)
}
