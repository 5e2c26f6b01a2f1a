package mapdata

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

var (
	ErrRegionNotFound  = errors.New("region not found")
	ErrSectionNotFound = errors.New("section not found")
)

const (
	regionKeyPrefix  = "region/"
	sectionKeyPrefix = "section/"
)

// Storage keeps every registered region's serialized sections in one pebble
// store. Routing requests lease a region through ResolveRegion; a region
// deregistered while leased stays readable until the last lease is released.
type Storage struct {
	db *pebble.DB

	mu      sync.Mutex
	leases  map[string]int
	pending map[string]struct{} // deregistered while leased
}

func Open(dir string) (*Storage, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open map data storage: %w", err)
	}
	return &Storage{
		db:      db,
		leases:  make(map[string]int),
		pending: make(map[string]struct{}),
	}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func regionKey(region string) []byte {
	return []byte(regionKeyPrefix + region)
}

func sectionKey(region, tag string) []byte {
	return []byte(sectionKeyPrefix + region + "/" + tag)
}

// RegisterRegion stores a region's sections and makes it resolvable.
// Re-registering overwrites the previous sections.
func (s *Storage) RegisterRegion(region string, sections map[string][]byte) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(regionKey(region), []byte{}, nil); err != nil {
		return err
	}
	for tag, section := range sections {
		if err := batch.Set(sectionKey(region, tag), section, nil); err != nil {
			return err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("register region %s: %w", region, err)
	}

	s.mu.Lock()
	delete(s.pending, region)
	s.mu.Unlock()
	return nil
}

// DeregisterRegion removes a region. With live leases the removal is deferred
// until the last one is released.
func (s *Storage) DeregisterRegion(region string) error {
	s.mu.Lock()
	if s.leases[region] > 0 {
		s.pending[region] = struct{}{}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.dropRegion(region)
}

func (s *Storage) dropRegion(region string) error {
	if err := s.db.Delete(regionKey(region), nil); err != nil {
		return err
	}
	start := sectionKey(region, "")
	end := sectionKey(region, string(rune(0xff)))
	if err := s.db.DeleteRange(start, end, pebble.Sync); err != nil {
		return fmt.Errorf("deregister region %s: %w", region, err)
	}
	return nil
}

// Regions lists the registered regions in key order.
func (s *Storage) Regions() ([]string, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(regionKeyPrefix),
		UpperBound: []byte(regionKeyPrefix + string(rune(0xff))),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var regions []string
	for iter.First(); iter.Valid(); iter.Next() {
		regions = append(regions, string(iter.Key()[len(regionKeyPrefix):]))
	}
	return regions, iter.Error()
}

// ResolveRegion leases a region for one request. The caller must Close the
// handle when done.
func (s *Storage) ResolveRegion(region string) (*Handle, error) {
	_, closer, err := s.db.Get(regionKey(region))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, region)
		}
		return nil, err
	}
	closer.Close()

	s.mu.Lock()
	if _, gone := s.pending[region]; gone {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRegionNotFound, region)
	}
	s.leases[region]++
	s.mu.Unlock()

	return &Handle{storage: s, region: region}, nil
}

// Handle is one request's lease on a region.
type Handle struct {
	storage *Storage
	region  string

	closeOnce sync.Once
}

func (h *Handle) Region() string {
	return h.region
}

// ReadSection returns a copy of the section payload, valid after Close.
func (h *Handle) ReadSection(tag string) ([]byte, error) {
	val, closer, err := h.storage.db.Get(sectionKey(h.region, tag))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrSectionNotFound, h.region, tag)
		}
		return nil, err
	}
	defer closer.Close()

	section := make([]byte, len(val))
	copy(section, val)
	return section, nil
}

func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		s := h.storage
		s.mu.Lock()
		s.leases[h.region]--
		drop := s.leases[h.region] == 0
		if drop {
			delete(s.leases, h.region)
			if _, gone := s.pending[h.region]; !gone {
				drop = false
			} else {
				delete(s.pending, h.region)
			}
		}
		s.mu.Unlock()

		if drop {
			// deferred deregistration, this was the last lease
			_ = s.dropRegion(h.region)
		}
	})
}
