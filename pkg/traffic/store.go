package traffic

import (
	"errors"
	"fmt"

	"github.com/DataDog/zstd"
	"github.com/dgraph-io/badger/v4"
	"github.com/kelindar/binary"
	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrColoringNotFound = errors.New("traffic coloring not found")

const snapshotCacheSize = 32

type coloringEntry struct {
	FeatureID    uint32
	SegmentIndex uint32
	Forward      bool
	Group        uint8
}

type serializedColoring struct {
	Entries []coloringEntry
}

func encodeColoring(c Coloring) ([]byte, error) {
	sc := serializedColoring{Entries: make([]coloringEntry, 0, len(c))}
	for key, group := range c {
		sc.Entries = append(sc.Entries, coloringEntry{
			FeatureID:    key.FeatureID,
			SegmentIndex: key.SegmentIndex,
			Forward:      key.Forward,
			Group:        uint8(group),
		})
	}
	bb, err := binary.Marshal(&sc)
	if err != nil {
		return nil, err
	}
	return zstd.Compress(nil, bb)
}

func decodeColoring(bb []byte) (Coloring, error) {
	decompressed, err := zstd.Decompress(nil, bb)
	if err != nil {
		return nil, err
	}
	var sc serializedColoring
	if err := binary.Unmarshal(decompressed, &sc); err != nil {
		return nil, err
	}
	coloring := make(Coloring, len(sc.Entries))
	for _, e := range sc.Entries {
		coloring[NewEdgeKey(e.FeatureID, e.SegmentIndex, e.Forward)] = SpeedGroup(e.Group)
	}
	return coloring, nil
}

// Store keeps the latest congestion snapshot per region in badger and serves
// immutable colorings to the router. Snapshots are cached so that concurrent
// searches over the same region share one map.
type Store struct {
	db    *badger.DB
	cache *lru.Cache[string, Coloring]
}

func NewStore(db *badger.DB) (*Store, error) {
	cache, err := lru.New[string, Coloring](snapshotCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

func colKey(region string) []byte {
	return []byte(fmt.Sprintf("traffic/%s", region))
}

// SaveColoring replaces the snapshot for region. The cached copy is dropped so
// new searches see the fresh data; in-flight searches keep the snapshot they
// already hold.
func (s *Store) SaveColoring(region string, c Coloring) error {
	bb, err := encodeColoring(c)
	if err != nil {
		return fmt.Errorf("encode traffic coloring: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(colKey(region), bb)
	})
	if err != nil {
		return fmt.Errorf("save traffic coloring: %w", err)
	}
	s.cache.Remove(region)
	return nil
}

// TrafficForRegion returns the current snapshot for region, or false when the
// region has no traffic data. The returned coloring must be treated as
// read-only.
func (s *Store) TrafficForRegion(region string) (Coloring, bool) {
	if cached, ok := s.cache.Get(region); ok {
		return cached, true
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(colKey(region))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false
	}

	coloring, err := decodeColoring(raw)
	if err != nil {
		return nil, false
	}
	s.cache.Add(region, coloring)
	return coloring, true
}
