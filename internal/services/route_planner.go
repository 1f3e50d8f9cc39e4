package services

import (
	"fmt"
	"time"

	"waste-dispatch-service/internal/domain"

	"github.com/google/uuid"
)

// Routing snapshot of a single hotspot. The planner is pure over these
// snapshots and never reads live store state.
type stop struct {
	id   uuid.UUID
	loc  domain.Coordinates
	tier domain.Tier
	vol  float64
}

// PlanRequest describes a full planning run for one worker shift.
type PlanRequest struct {
	WorkerID          string
	Start             domain.Coordinates
	VehicleCapacityM3 float64
	Hotspots          []domain.Hotspot
}

// PlanRoutes builds the visiting order for a worker's assigned hotspots.
//
// CodeRed hotspots are ordered first by greedy nearest-neighbor from the
// start location, then the remaining hotspots by nearest-neighbor from the
// end of the CodeRed chain. The CodeRed segment always precedes the rest in
// the output regardless of geometric cost. Each segment is improved
// independently by bounded 2-opt; improvement never crosses the segment
// boundary. Finally the ordered sequence is split greedily into legs that
// respect the vehicle capacity; because the split walks the
// priority-ordered sequence, no CodeRed hotspot lands in a later leg than a
// non-CodeRed one.
//
// An empty hotspot set is a valid shift: the result is one plan with zero
// waypoints.
func PlanRoutes(req PlanRequest) ([]*domain.RoutePlan, error) {
	if !req.Start.Valid() {
		return nil, fmt.Errorf("plan routes: worker %s start lat=%v lng=%v: %w",
			req.WorkerID, req.Start.Lat, req.Start.Lng, domain.ErrInvalidLocation)
	}

	stops := stopsFromHotspots(req.Hotspots)
	ordered := orderStops(req.Start, stops)
	legs := splitByCapacity(ordered, req.VehicleCapacityM3)

	now := time.Now().UTC()
	if len(legs) == 0 {
		return []*domain.RoutePlan{buildPlan(req, nil, 0, 1, 0, now)}, nil
	}

	plans := make([]*domain.RoutePlan, 0, len(legs))
	for i, leg := range legs {
		plans = append(plans, buildPlan(req, leg, i, 1, 0, now))
	}
	return plans, nil
}

// RepairRequest describes an incremental re-plan of an active route.
type RepairRequest struct {
	Plan         domain.RoutePlan
	VisitedCount int
	NewHotspots  []domain.Hotspot
}

// RepairRoute re-plans the unvisited remainder of an active route plus any
// newly arrived hotspots, producing the next plan version.
//
// Waypoints with sequence number at or below VisitedCount keep their order
// and position unchanged, so the worker is never redirected backward past a
// point already visited. The remainder is re-ordered by the same
// CodeRed-first algorithm, starting from the last visited location.
func RepairRoute(req RepairRequest) (*domain.RoutePlan, error) {
	base := req.Plan
	if !base.Start.Valid() {
		return nil, fmt.Errorf("repair route: worker %s start lat=%v lng=%v: %w",
			base.WorkerID, base.Start.Lat, base.Start.Lng, domain.ErrInvalidLocation)
	}

	visited := req.VisitedCount
	if visited < 0 {
		visited = 0
	}
	if visited > len(base.Waypoints) {
		visited = len(base.Waypoints)
	}

	prefix := append([]domain.Waypoint(nil), base.Waypoints[:visited]...)

	position := base.Start
	if visited > 0 {
		position = prefix[visited-1].Location
	}

	visitedIDs := make(map[uuid.UUID]struct{}, visited)
	for _, wp := range prefix {
		visitedIDs[wp.HotspotID] = struct{}{}
	}

	remainder := make([]stop, 0, len(base.Waypoints)-visited+len(req.NewHotspots))
	byID := make(map[uuid.UUID]int, len(base.Waypoints)-visited)
	for _, wp := range base.Waypoints[visited:] {
		if _, ok := visitedIDs[wp.HotspotID]; ok {
			continue
		}
		if _, ok := byID[wp.HotspotID]; ok {
			continue
		}
		byID[wp.HotspotID] = len(remainder)
		remainder = append(remainder, stop{id: wp.HotspotID, loc: wp.Location, tier: wp.Tier, vol: wp.VolumeM3})
	}
	// New arrivals: fresh snapshots win over stale waypoint copies, so a
	// hotspot that merged more volume since the base plan is re-ranked.
	for i := range req.NewHotspots {
		h := &req.NewHotspots[i]
		if h.Status.Terminal() {
			continue
		}
		if _, ok := visitedIDs[h.ID]; ok {
			continue
		}
		snap := stop{id: h.ID, loc: h.Location, tier: h.PriorityTier, vol: h.VolumeM3}
		if idx, ok := byID[h.ID]; ok {
			remainder[idx] = snap
			continue
		}
		byID[h.ID] = len(remainder)
		remainder = append(remainder, snap)
	}

	ordered := orderStops(position, remainder)

	next := base.Clone()
	next.ID = uuid.New()
	next.Version = base.Version + 1
	next.RecalculationCount = base.RecalculationCount + 1
	next.CreatedAt = time.Now().UTC()
	next.Waypoints = prefix
	next.TotalVolumeM3 = 0

	seq := visited
	cursor := position
	cum := 0.0
	if visited > 0 {
		cum = prefix[visited-1].CumulativeMeters
	}
	for _, s := range ordered {
		seq++
		cum += cursor.DistanceMeters(s.loc)
		cursor = s.loc
		next.Waypoints = append(next.Waypoints, domain.Waypoint{
			HotspotID:        s.id,
			Location:         s.loc,
			Tier:             s.tier,
			VolumeM3:         s.vol,
			Sequence:         seq,
			CumulativeMeters: cum,
		})
	}
	next.TotalMeters = cum
	for _, wp := range next.Waypoints {
		next.TotalVolumeM3 += wp.VolumeM3
	}

	return &next, nil
}

// InsertionOrderPlan builds an unoptimized plan that visits hotspots in the
// order given. Fallback used by the coordinator when optimized planning
// fails: a suboptimal route beats no route.
func InsertionOrderPlan(req PlanRequest) *domain.RoutePlan {
	stops := stopsFromHotspots(req.Hotspots)
	return buildPlan(req, stops, 0, 1, 0, time.Now().UTC())
}

func stopsFromHotspots(hotspots []domain.Hotspot) []stop {
	stops := make([]stop, 0, len(hotspots))
	for i := range hotspots {
		h := &hotspots[i]
		if h.Status.Terminal() {
			continue
		}
		stops = append(stops, stop{id: h.ID, loc: h.Location, tier: h.PriorityTier, vol: h.VolumeM3})
	}
	return stops
}

// orderStops produces the CodeRed-first visiting order: nearest-neighbor
// seeding per segment, then 2-opt within each segment independently.
func orderStops(start domain.Coordinates, stops []stop) []stop {
	var codeRed, rest []stop
	for _, s := range stops {
		if s.tier == domain.TierCodeRed {
			codeRed = append(codeRed, s)
		} else {
			rest = append(rest, s)
		}
	}

	codeRed = nearestNeighborOrder(start, codeRed)
	restStart := start
	if len(codeRed) > 0 {
		restStart = codeRed[len(codeRed)-1].loc
	}
	rest = nearestNeighborOrder(restStart, rest)

	twoOpt(start, codeRed)
	if len(codeRed) > 0 {
		restStart = codeRed[len(codeRed)-1].loc
	}
	twoOpt(restStart, rest)

	return append(codeRed, rest...)
}

// nearestNeighborOrder greedily picks the unvisited stop minimizing
// great-circle distance from the current position. Ties break on lower
// hotspot id for determinism.
func nearestNeighborOrder(start domain.Coordinates, stops []stop) []stop {
	remaining := append([]stop(nil), stops...)
	ordered := make([]stop, 0, len(remaining))
	cursor := start

	for len(remaining) > 0 {
		best := 0
		bestDist := cursor.DistanceMeters(remaining[0].loc)
		for i := 1; i < len(remaining); i++ {
			d := cursor.DistanceMeters(remaining[i].loc)
			if d < bestDist || (d == bestDist && remaining[i].id.String() < remaining[best].id.String()) {
				best = i
				bestDist = d
			}
		}
		picked := remaining[best]
		ordered = append(ordered, picked)
		remaining = append(remaining[:best], remaining[best+1:]...)
		cursor = picked.loc
	}
	return ordered
}

// twoOpt applies in-place 2-opt improvement to one open path segment
// entered from entry. Bounded: a fixed pass budget proportional to segment
// length guarantees termination; nearest-neighbor seeds converge well
// within it.
func twoOpt(entry domain.Coordinates, seg []stop) {
	n := len(seg)
	if n < 3 {
		return
	}

	maxPasses := n
	for pass := 0; pass < maxPasses; pass++ {
		improved := false
		for i := 0; i < n-1; i++ {
			prev := entry
			if i > 0 {
				prev = seg[i-1].loc
			}
			for j := i + 1; j < n; j++ {
				before := prev.DistanceMeters(seg[i].loc)
				after := prev.DistanceMeters(seg[j].loc)
				if j < n-1 {
					before += seg[j].loc.DistanceMeters(seg[j+1].loc)
					after += seg[i].loc.DistanceMeters(seg[j+1].loc)
				}
				if after+1e-9 < before {
					reverseStops(seg[i : j+1])
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
}

func reverseStops(s []stop) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// splitByCapacity walks the priority-ordered sequence and closes a leg
// whenever adding the next stop would exceed capacity. A single stop larger
// than the capacity still gets its own leg: covering every hotspot beats
// strict capacity adherence for an indivisible load. capacity <= 0 means
// unlimited.
func splitByCapacity(ordered []stop, capacityM3 float64) [][]stop {
	if len(ordered) == 0 {
		return nil
	}
	if capacityM3 <= 0 {
		return [][]stop{ordered}
	}

	var legs [][]stop
	var current []stop
	load := 0.0
	for _, s := range ordered {
		if len(current) > 0 && load+s.vol > capacityM3 {
			legs = append(legs, current)
			current = nil
			load = 0
		}
		current = append(current, s)
		load += s.vol
	}
	if len(current) > 0 {
		legs = append(legs, current)
	}
	return legs
}

func buildPlan(req PlanRequest, leg []stop, legIndex, version, recalcs int, now time.Time) *domain.RoutePlan {
	plan := &domain.RoutePlan{
		ID:                 uuid.New(),
		WorkerID:           req.WorkerID,
		Version:            version,
		Leg:                legIndex,
		Start:              req.Start,
		VehicleCapacityM3:  req.VehicleCapacityM3,
		Waypoints:          make([]domain.Waypoint, 0, len(leg)),
		Status:             domain.PlanPlanned,
		RecalculationCount: recalcs,
		CreatedAt:          now,
	}

	cursor := req.Start
	cum := 0.0
	for i, s := range leg {
		// The insertion-order fallback runs even when the start location is
		// malformed; distance metrics are simply unavailable then.
		if cursor.Valid() && s.loc.Valid() {
			cum += cursor.DistanceMeters(s.loc)
		}
		cursor = s.loc
		plan.Waypoints = append(plan.Waypoints, domain.Waypoint{
			HotspotID:        s.id,
			Location:         s.loc,
			Tier:             s.tier,
			VolumeM3:         s.vol,
			Sequence:         i + 1,
			CumulativeMeters: cum,
		})
		plan.TotalVolumeM3 += s.vol
	}
	plan.TotalMeters = cum
	return plan
}
