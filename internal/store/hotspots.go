// Package store owns the hotspot lifecycle: ingestion and merge of
// classifier detections, priority scoring commits, status transitions and
// snapshot reads for routing.
package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/geoindex"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/services"

	"github.com/google/uuid"
)

// Two detections at or inside this distance aggregate into one hotspot.
// Boundary inclusive.
const MergeRadiusMeters = 50.0

// Zones beyond this distance cannot change the proximity factor, so zone
// registration only rescores hotspots inside it.
const zoneRescoreHorizonMeters = 1000.0

// Outcome of one detection ingestion.
type IngestResult struct {
	Hotspot domain.Hotspot
	Merged  bool
}

// HotspotStore is the exclusive owner of hotspot records. All mutation of a
// single hotspot is serialized through a per-id mutex; commits swap an
// immutable record copy under the store lock so snapshot readers never see
// a half-applied merge.
type HotspotStore struct {
	mu       sync.RWMutex
	hotspots map[uuid.UUID]*domain.Hotspot
	locks    map[uuid.UUID]*sync.Mutex
	zoneRecs map[uuid.UUID]domain.SensitiveZone

	index *geoindex.Index
	zones *geoindex.Index
}

func New() *HotspotStore {
	return &HotspotStore{
		hotspots: make(map[uuid.UUID]*domain.Hotspot),
		locks:    make(map[uuid.UUID]*sync.Mutex),
		zoneRecs: make(map[uuid.UUID]domain.SensitiveZone),
		index:    geoindex.New(),
		zones:    geoindex.New(),
	}
}

// Ingest aggregates one classifier detection into the hotspot set.
//
// Existing non-terminal hotspots within the merge radius are candidates;
// the nearest one wins (ties by most recent update, then lower id) and
// receives the detection as a delta: volume summed, waste types unioned,
// source detections appended, location moved to the centroid of all
// contributing detections. With no candidate a new hotspot is created.
// Either way the priority score and tier are recomputed and committed,
// since added volume or waste types can change the tier.
func (s *HotspotStore) Ingest(ctx context.Context, det domain.DetectionResult) (_ IngestResult, err error) {
	defer obs.Time(ctx, "hotspot.ingest")(&err)

	if err := det.Validate(); err != nil {
		return IngestResult{}, fmt.Errorf("ingest: %w", err)
	}
	if det.ID == uuid.Nil {
		det.ID = uuid.New()
	}

	for {
		targetID, created, snapshot := s.resolveTarget(det)
		if created {
			return IngestResult{Hotspot: snapshot, Merged: false}, nil
		}

		merged, ok, err := s.applyMerge(targetID, det)
		if err != nil {
			return IngestResult{}, fmt.Errorf("ingest: %w", err)
		}
		if ok {
			return IngestResult{Hotspot: merged, Merged: true}, nil
		}
		// Target reached a terminal status between candidate resolution
		// and the merge lock; resolve again.
	}
}

// resolveTarget picks the merge target, or creates a new hotspot when no
// candidate exists within the merge radius. Creation happens under the
// store lock so two concurrent detections at a fresh location cannot both
// create.
func (s *HotspotStore) resolveTarget(det domain.DetectionResult) (uuid.UUID, bool, domain.Hotspot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		target     *domain.Hotspot
		targetDist float64
	)
	for _, id := range s.index.QueryRadius(det.Location, MergeRadiusMeters) {
		h, ok := s.hotspots[id]
		if !ok || h.Status.Terminal() {
			continue
		}
		d := det.Location.DistanceMeters(h.Location)
		if target == nil || betterCandidate(d, h, targetDist, target) {
			target = h
			targetDist = d
		}
	}

	if target != nil {
		return target.ID, false, domain.Hotspot{}
	}

	now := time.Now().UTC()
	h := &domain.Hotspot{
		ID:                uuid.New(),
		AreaName:          det.AreaName,
		Location:          det.Location,
		VolumeM3:          det.VolumeM3,
		WasteTypes:        det.EffectiveWasteTypes(),
		Status:            domain.StatusPending,
		SourceDetections:  []uuid.UUID{det.ID},
		NeedsManualReview: det.ReviewRequired(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.scoreLocked(h)
	s.hotspots[h.ID] = h
	s.locks[h.ID] = &sync.Mutex{}
	s.index.Insert(h.ID, h.Location)
	return h.ID, true, h.Clone()
}

// betterCandidate orders merge candidates: nearest first, then most
// recently updated, then lower id. Single-target merge only; losing
// candidates are left untouched.
func betterCandidate(d float64, h *domain.Hotspot, bestDist float64, best *domain.Hotspot) bool {
	if d != bestDist {
		return d < bestDist
	}
	if !h.UpdatedAt.Equal(best.UpdatedAt) {
		return h.UpdatedAt.After(best.UpdatedAt)
	}
	return h.ID.String() < best.ID.String()
}

// applyMerge folds the detection into the target under its per-id lock.
// Returns ok=false when the target went terminal and the caller must
// re-resolve.
func (s *HotspotStore) applyMerge(id uuid.UUID, det domain.DetectionResult) (domain.Hotspot, bool, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current := s.hotspots[id]
	s.mu.RUnlock()

	if current == nil || current.Status.Terminal() {
		return domain.Hotspot{}, false, nil
	}

	next := current.Clone()
	n := float64(len(next.SourceDetections))
	// Centroid of all contributing detections, updated incrementally so
	// repeated submissions drift the hotspot toward the true center.
	next.Location.Lat += (det.Location.Lat - next.Location.Lat) / (n + 1)
	next.Location.Lng += (det.Location.Lng - next.Location.Lng) / (n + 1)
	next.VolumeM3 += det.VolumeM3
	for _, w := range det.EffectiveWasteTypes() {
		if !next.HasWasteType(w) {
			next.WasteTypes = append(next.WasteTypes, w)
		}
	}
	next.SourceDetections = append(next.SourceDetections, det.ID)
	next.NeedsManualReview = next.NeedsManualReview || det.ReviewRequired()
	if next.AreaName == "" {
		next.AreaName = det.AreaName
	}
	next.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hotspots[id] != current {
		// Mutated while we held the per-id lock: serialization was
		// bypassed. Fail loudly rather than resolve silently.
		return domain.Hotspot{}, false, fmt.Errorf("hotspot %s: %w", id, domain.ErrConcurrentModification)
	}
	s.scoreLocked(&next)
	s.hotspots[id] = &next
	s.index.Insert(id, next.Location)
	return next.Clone(), true, nil
}

// scoreLocked recomputes score, tier and the nearest-zone reference.
// Caller holds s.mu.
func (s *HotspotStore) scoreLocked(h *domain.Hotspot) {
	nearestZone := math.Inf(1)
	h.NearestZone = nil
	if ids := s.zones.Nearest(h.Location, 1); len(ids) > 0 {
		z := s.zoneRecs[ids[0]]
		nearestZone = h.Location.DistanceMeters(z.Location)
		h.NearestZone = &domain.ZoneProximity{
			ZoneID:         z.ID,
			Category:       z.Category,
			DistanceMeters: nearestZone,
		}
	}
	h.PriorityScore, h.PriorityTier = services.Score(services.PriorityInput{
		VolumeM3:          h.VolumeM3,
		WasteTypes:        h.WasteTypes,
		NearestZoneMeters: nearestZone,
	})
}

// UpdateStatus applies one status transition under the per-id lock.
func (s *HotspotStore) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.Status) (_ domain.Hotspot, err error) {
	defer obs.Time(ctx, "hotspot.update_status")(&err)

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current := s.hotspots[id]
	s.mu.RUnlock()

	if current == nil {
		return domain.Hotspot{}, fmt.Errorf("update status: hotspot %s: %w", id, domain.ErrUnknownHotspot)
	}

	cp := current.Clone()
	if err := cp.Transition(next, time.Now().UTC()); err != nil {
		return domain.Hotspot{}, fmt.Errorf("update status: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hotspots[id] != current {
		return domain.Hotspot{}, fmt.Errorf("update status: hotspot %s: %w", id, domain.ErrConcurrentModification)
	}
	s.hotspots[id] = &cp
	return cp.Clone(), nil
}

// Get returns a snapshot of one hotspot.
func (s *HotspotStore) Get(id uuid.UUID) (domain.Hotspot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hotspots[id]
	if !ok {
		return domain.Hotspot{}, false
	}
	return h.Clone(), true
}

// QueryArea returns snapshots of non-terminal hotspots inside the bounds,
// ordered by creation time then id. Copy-on-read: callers may plan over the
// result while ingestion continues; staleness self-corrects on the next
// repair cycle.
func (s *HotspotStore) QueryArea(bounds domain.BoundingBox) []domain.Hotspot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Hotspot
	for _, h := range s.hotspots {
		if h.Status.Terminal() || !bounds.Contains(h.Location) {
			continue
		}
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// AddZone registers a sensitive zone and rescores hotspots near enough for
// their proximity factor to change. Returns the zone as stored and the
// rescored hotspot snapshots whose score or tier moved.
func (s *HotspotStore) AddZone(ctx context.Context, zone domain.SensitiveZone) (domain.SensitiveZone, []domain.Hotspot, error) {
	if !zone.Location.Valid() {
		return domain.SensitiveZone{}, nil, fmt.Errorf("add zone: lat=%v lng=%v: %w",
			zone.Location.Lat, zone.Location.Lng, domain.ErrInvalidLocation)
	}
	if zone.ID == uuid.Nil {
		zone.ID = uuid.New()
	}
	if zone.RadiusMeters <= 0 {
		zone.RadiusMeters = domain.DefaultZoneRadiusMeters
	}
	if zone.CreatedAt.IsZero() {
		zone.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.zoneRecs[zone.ID] = zone
	s.zones.Insert(zone.ID, zone.Location)
	affected := s.index.QueryRadius(zone.Location, zoneRescoreHorizonMeters)
	s.mu.Unlock()

	var changed []domain.Hotspot
	for _, id := range affected {
		h, ok, err := s.rescore(id)
		if err != nil {
			return domain.SensitiveZone{}, nil, fmt.Errorf("add zone: %w", err)
		}
		if ok {
			changed = append(changed, h)
		}
	}
	return zone, changed, nil
}

// rescore recomputes score and tier for one hotspot. Reports ok=true only
// when the committed score or tier differs from the previous one.
func (s *HotspotStore) rescore(id uuid.UUID) (domain.Hotspot, bool, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	current := s.hotspots[id]
	s.mu.RUnlock()
	if current == nil || current.Status.Terminal() {
		return domain.Hotspot{}, false, nil
	}

	next := current.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hotspots[id] != current {
		return domain.Hotspot{}, false, fmt.Errorf("rescore: hotspot %s: %w", id, domain.ErrConcurrentModification)
	}
	s.scoreLocked(&next)
	if next.PriorityScore == current.PriorityScore && next.PriorityTier == current.PriorityTier {
		return domain.Hotspot{}, false, nil
	}
	next.UpdatedAt = time.Now().UTC()
	s.hotspots[id] = &next
	return next.Clone(), true, nil
}

// Zones returns snapshots of all registered sensitive zones.
func (s *HotspotStore) Zones() []domain.SensitiveZone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SensitiveZone, 0, len(s.zoneRecs))
	for _, z := range s.zoneRecs {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

func (s *HotspotStore) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}
