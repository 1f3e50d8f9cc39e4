// Package geoindex provides a grid-bucketed spatial index over point
// records, supporting radius and nearest-k queries at the sub-kilometer
// scales the dispatch core operates on.
package geoindex

import (
	"math"
	"sort"
	"sync"

	"waste-dispatch-service/internal/domain"

	"github.com/google/uuid"
)

// Bucket edge in degrees of latitude (~1.1 km). Radius queries scan the
// cell neighborhood covering the search circle, then post-filter by
// haversine distance.
const cellSizeDeg = 0.01

type cellKey struct {
	row int
	col int
}

type entry struct {
	cell cellKey
	loc  domain.Coordinates
}

// Index holds non-owning (id, location) references for lookup only.
// Safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	cells map[cellKey]map[uuid.UUID]domain.Coordinates
	byID  map[uuid.UUID]entry
}

func New() *Index {
	return &Index{
		cells: make(map[cellKey]map[uuid.UUID]domain.Coordinates),
		byID:  make(map[uuid.UUID]entry),
	}
}

func cellFor(loc domain.Coordinates) cellKey {
	return cellKey{
		row: int(math.Floor(loc.Lat / cellSizeDeg)),
		col: int(math.Floor(loc.Lng / cellSizeDeg)),
	}
}

// Insert adds or relocates a point. Re-inserting an existing id moves it.
func (ix *Index) Insert(id uuid.UUID, loc domain.Coordinates) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.byID[id]; ok {
		delete(ix.cells[old.cell], id)
	}

	key := cellFor(loc)
	bucket, ok := ix.cells[key]
	if !ok {
		bucket = make(map[uuid.UUID]domain.Coordinates)
		ix.cells[key] = bucket
	}
	bucket[id] = loc
	ix.byID[id] = entry{cell: key, loc: loc}
}

// Remove deletes a point. Removing an unknown id is a no-op.
func (ix *Index) Remove(id uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.byID[id]
	if !ok {
		return
	}
	delete(ix.cells[e.cell], id)
	if len(ix.cells[e.cell]) == 0 {
		delete(ix.cells, e.cell)
	}
	delete(ix.byID, id)
}

// Len returns the number of indexed points.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// Location returns the indexed location for id.
func (ix *Index) Location(id uuid.UUID) (domain.Coordinates, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.byID[id]
	return e.loc, ok
}

// QueryRadius returns the ids of all points within radiusMeters of center,
// boundary inclusive. Order is unspecified.
func (ix *Index) QueryRadius(center domain.Coordinates, radiusMeters float64) []uuid.UUID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	latSpan := radiusMeters / domain.MetersPerDegreeLat
	lngScale := math.Cos(center.Lat * math.Pi / 180)
	// Near the poles a longitude degree collapses; fall back to scanning
	// the full longitude range of touched rows.
	lngSpan := 180.0
	if lngScale > 1e-6 {
		lngSpan = radiusMeters / (domain.MetersPerDegreeLat * lngScale)
	}

	minRow := int(math.Floor((center.Lat - latSpan) / cellSizeDeg))
	maxRow := int(math.Floor((center.Lat + latSpan) / cellSizeDeg))
	minCol := int(math.Floor((center.Lng - lngSpan) / cellSizeDeg))
	maxCol := int(math.Floor((center.Lng + lngSpan) / cellSizeDeg))

	var out []uuid.UUID
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for id, loc := range ix.cells[cellKey{row: row, col: col}] {
				if center.DistanceMeters(loc) <= radiusMeters {
					out = append(out, id)
				}
			}
		}
	}
	return out
}

// Nearest returns up to k point ids ordered by distance from center,
// ascending; ties broken by id for determinism.
func (ix *Index) Nearest(center domain.Coordinates, k int) []uuid.UUID {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if k <= 0 || len(ix.byID) == 0 {
		return nil
	}

	type candidate struct {
		id   uuid.UUID
		dist float64
	}
	cands := make([]candidate, 0, len(ix.byID))
	for id, e := range ix.byID {
		cands = append(cands, candidate{id: id, dist: center.DistanceMeters(e.loc)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].id.String() < cands[j].id.String()
	})

	if k > len(cands) {
		k = len(cands)
	}
	out := make([]uuid.UUID, 0, k)
	for _, c := range cands[:k] {
		out = append(out, c.id)
	}
	return out
}
