// Package dispatch orchestrates the core: it routes detection and zone
// events into the hotspot store, decides when an active route needs
// recomputation, and fans committed hotspot and route changes out to
// collaborators.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
	"waste-dispatch-service/internal/services"
	"waste-dispatch-service/internal/store"

	"github.com/google/uuid"
)

// Soft real-time deadline for a CodeRed repair notification to reach the
// worker. Exceeding it is logged, not enforced by scheduling.
const DefaultFreshnessWindow = 30 * time.Second

// Per-worker route state. The active plan pointer is swapped atomically
// under the coordinator lock; plan versions themselves are immutable.
type workerState struct {
	workerID   string
	area       domain.BoundingBox
	start      domain.Coordinates
	capacityM3 float64

	active  *domain.RoutePlan
	legs    []*domain.RoutePlan
	visited int

	// Hotspots awaiting inclusion in the next committed repair. Keeping
	// them here lets a cancel-and-restart repair carry every trigger that
	// arrived while an earlier repair was in flight.
	pending map[uuid.UUID]domain.Hotspot

	cancelRepair context.CancelFunc
}

// Coordinator owns the worker/route mapping and the single-flight repair
// discipline. Hotspot records stay owned by the store; the coordinator only
// reads snapshots.
type Coordinator struct {
	store     *store.HotspotStore
	sinks     []ports.HotspotSink
	notifiers []ports.RouteNotifier
	freshness time.Duration

	mu      sync.Mutex
	workers map[string]*workerState

	repairWG sync.WaitGroup
}

func New(st *store.HotspotStore, sinks []ports.HotspotSink, notifiers []ports.RouteNotifier) *Coordinator {
	return &Coordinator{
		store:     st,
		sinks:     sinks,
		notifiers: notifiers,
		freshness: DefaultFreshnessWindow,
		workers:   make(map[string]*workerState),
	}
}

// HandleDetection ingests one classifier result, publishes the resulting
// hotspot change, and triggers route repair for every active worker whose
// area contains a top-tier hotspot.
func (c *Coordinator) HandleDetection(ctx context.Context, det domain.DetectionResult) (store.IngestResult, error) {
	res, err := c.store.Ingest(ctx, det)
	if err != nil {
		return store.IngestResult{}, fmt.Errorf("handle detection: %w", err)
	}

	kind := ports.HotspotCreated
	if res.Merged {
		kind = ports.HotspotMerged
	}
	c.emitHotspot(ctx, ports.HotspotEvent{Kind: kind, Hotspot: res.Hotspot})

	if res.Hotspot.PriorityTier == domain.TierCodeRed {
		c.triggerRepairs(res.Hotspot)
	}
	return res, nil
}

// HandleZone registers a sensitive zone and propagates any tier changes the
// new zone causes, including repairs for hotspots pushed into CodeRed.
func (c *Coordinator) HandleZone(ctx context.Context, zone domain.SensitiveZone) (domain.SensitiveZone, error) {
	stored, changed, err := c.store.AddZone(ctx, zone)
	if err != nil {
		return domain.SensitiveZone{}, fmt.Errorf("handle zone: %w", err)
	}
	for _, h := range changed {
		c.emitHotspot(ctx, ports.HotspotEvent{Kind: ports.HotspotRescored, Hotspot: h})
		if h.PriorityTier == domain.TierCodeRed {
			c.triggerRepairs(h)
		}
	}
	return stored, nil
}

// UpdateHotspotStatus applies a status transition and publishes the change.
func (c *Coordinator) UpdateHotspotStatus(ctx context.Context, id uuid.UUID, next domain.Status) (domain.Hotspot, error) {
	h, err := c.store.UpdateStatus(ctx, id, next)
	if err != nil {
		return domain.Hotspot{}, fmt.Errorf("update hotspot status: %w", err)
	}
	c.emitHotspot(ctx, ports.HotspotEvent{Kind: ports.HotspotStatusChanged, Hotspot: h})
	return h, nil
}

// Parameters of one worker shift.
type ShiftRequest struct {
	WorkerID   string
	Start      domain.Coordinates
	Area       domain.BoundingBox
	CapacityM3 float64
}

// StartShift plans routes over the worker's area and activates the first
// leg. When optimized planning fails the worker still gets an
// insertion-order route: graceful degradation, a late route beats no route.
func (c *Coordinator) StartShift(ctx context.Context, req ShiftRequest) ([]domain.RoutePlan, error) {
	if req.WorkerID == "" {
		return nil, errors.New("start shift: worker id must be non-empty")
	}

	hotspots := c.store.QueryArea(req.Area)
	planReq := services.PlanRequest{
		WorkerID:          req.WorkerID,
		Start:             req.Start,
		VehicleCapacityM3: req.CapacityM3,
		Hotspots:          hotspots,
	}

	plans, err := services.PlanRoutes(planReq)
	if err != nil {
		log.Printf("worker=%s op=plan err=%v fallback=insertion_order", req.WorkerID, err)
		plans = []*domain.RoutePlan{services.InsertionOrderPlan(planReq)}
	}

	plans[0].Status = domain.PlanActive

	c.mu.Lock()
	if prev, ok := c.workers[req.WorkerID]; ok && prev.cancelRepair != nil {
		prev.cancelRepair()
	}
	ws := &workerState{
		workerID:   req.WorkerID,
		area:       req.Area,
		start:      req.Start,
		capacityM3: req.CapacityM3,
		active:     plans[0],
		legs:       plans[1:],
		pending:    make(map[uuid.UUID]domain.Hotspot),
	}
	c.workers[req.WorkerID] = ws
	c.mu.Unlock()

	out := make([]domain.RoutePlan, 0, len(plans))
	for _, p := range plans {
		c.emitRoute(ctx, ports.RouteEvent{Kind: ports.RoutePlanned, Plan: p.Clone()})
		out = append(out, p.Clone())
	}
	return out, nil
}

// UpdatePosition records the worker's reported progress. Waypoints at or
// before the reported sequence number are treated as visited and keep their
// order through any repair. Completing the active leg activates the next
// one.
func (c *Coordinator) UpdatePosition(ctx context.Context, workerID string, visitedSequence int) error {
	c.mu.Lock()
	ws, ok := c.workers[workerID]
	if !ok || ws.active == nil {
		c.mu.Unlock()
		return fmt.Errorf("update position: worker %s: %w", workerID, domain.ErrUnknownWorker)
	}

	if visitedSequence > ws.visited {
		ws.visited = visitedSequence
	}
	if ws.visited > len(ws.active.Waypoints) {
		ws.visited = len(ws.active.Waypoints)
	}

	var activated *domain.RoutePlan
	if ws.visited == len(ws.active.Waypoints) && len(ws.legs) > 0 {
		done := ws.active
		done.Status = domain.PlanCompleted
		ws.active = ws.legs[0]
		ws.legs = ws.legs[1:]
		ws.active.Status = domain.PlanActive
		ws.visited = 0
		activated = ws.active
	}
	c.mu.Unlock()

	if activated != nil {
		c.emitRoute(ctx, ports.RouteEvent{Kind: ports.RoutePlanned, Plan: activated.Clone()})
	}
	return nil
}

// CancelShift abandons any in-flight repair for the worker and retires the
// active route.
func (c *Coordinator) CancelShift(ctx context.Context, workerID string) error {
	c.mu.Lock()
	ws, ok := c.workers[workerID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("cancel shift: worker %s: %w", workerID, domain.ErrUnknownWorker)
	}
	if ws.cancelRepair != nil {
		ws.cancelRepair()
	}
	var cancelled *domain.RoutePlan
	if ws.active != nil {
		ws.active.Status = domain.PlanCancelled
		cancelled = ws.active
	}
	delete(c.workers, workerID)
	c.mu.Unlock()

	if cancelled != nil {
		c.emitRoute(ctx, ports.RouteEvent{Kind: ports.RouteCancelled, Plan: cancelled.Clone()})
	}
	return nil
}

// ActivePlan returns a snapshot of the worker's current active plan.
func (c *Coordinator) ActivePlan(workerID string) (domain.RoutePlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws, ok := c.workers[workerID]
	if !ok || ws.active == nil {
		return domain.RoutePlan{}, false
	}
	return ws.active.Clone(), true
}

// WaitRepairs blocks until all in-flight repair goroutines finish. Test and
// shutdown hook.
func (c *Coordinator) WaitRepairs() {
	c.repairWG.Wait()
}

// triggerRepairs starts a repair for every active worker whose area
// contains the hotspot. Per worker the discipline is single-flight with
// cancel-and-restart: a trigger arriving while a repair is in flight
// cancels it and restarts with every pending hotspot included, so inputs
// coalesce instead of queueing competing plan versions.
func (c *Coordinator) triggerRepairs(h domain.Hotspot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ws := range c.workers {
		if ws.active == nil || !ws.area.Contains(h.Location) {
			continue
		}
		ws.pending[h.ID] = h

		if ws.cancelRepair != nil {
			ws.cancelRepair()
		}
		ctx, cancel := context.WithCancel(context.Background())
		ws.cancelRepair = cancel

		base := ws.active.Clone()
		visited := ws.visited
		adds := make([]domain.Hotspot, 0, len(ws.pending))
		for _, p := range ws.pending {
			adds = append(adds, p)
		}

		c.repairWG.Add(1)
		go c.runRepair(ctx, ws.workerID, base, visited, adds, h.ID)
	}
}

// runRepair computes one repair and commits it if the base plan is still
// the active version when it finishes. Cancelled or superseded repairs are
// abandoned without committing.
func (c *Coordinator) runRepair(ctx context.Context, workerID string, base domain.RoutePlan, visited int, adds []domain.Hotspot, trigger uuid.UUID) {
	defer c.repairWG.Done()
	started := time.Now()

	plan, err := services.RepairRoute(services.RepairRequest{
		Plan:         base,
		VisitedCount: visited,
		NewHotspots:  adds,
	})
	if err != nil {
		log.Printf("worker=%s op=repair err=%v", workerID, err)
		return
	}
	if ctx.Err() != nil {
		log.Printf("worker=%s op=repair result=abandoned reason=%v", workerID, ctx.Err())
		return
	}

	c.mu.Lock()
	ws, ok := c.workers[workerID]
	if !ok || ws.active == nil || ws.active.Version != base.Version || ctx.Err() != nil {
		c.mu.Unlock()
		log.Printf("worker=%s op=repair result=abandoned err=%v", workerID, domain.ErrPlanSuperseded)
		return
	}
	plan.Status = domain.PlanActive
	ws.active = plan
	for _, h := range adds {
		delete(ws.pending, h.ID)
	}
	ws.cancelRepair = nil
	c.mu.Unlock()

	elapsed := time.Since(started)
	if elapsed > c.freshness {
		log.Printf("worker=%s op=repair dur=%dms warn=freshness_window_exceeded window=%s",
			workerID, elapsed.Milliseconds(), c.freshness)
	}

	t := trigger
	c.emitRoute(context.Background(), ports.RouteEvent{
		Kind:        ports.RouteRepaired,
		Plan:        plan.Clone(),
		TriggeredBy: &t,
	})
}

func (c *Coordinator) emitHotspot(ctx context.Context, ev ports.HotspotEvent) {
	for _, sink := range c.sinks {
		if err := sink.HotspotChanged(ctx, ev); err != nil {
			log.Printf("op=emit_hotspot kind=%s hotspot=%s err=%v", ev.Kind, ev.Hotspot.ID, err)
		}
	}
}

func (c *Coordinator) emitRoute(ctx context.Context, ev ports.RouteEvent) {
	for _, n := range c.notifiers {
		if err := n.RouteChanged(ctx, ev); err != nil {
			log.Printf("op=emit_route kind=%s worker=%s version=%d err=%v", ev.Kind, ev.Plan.WorkerID, ev.Plan.Version, err)
		}
	}
}
