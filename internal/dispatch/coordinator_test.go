package dispatch

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"
	"waste-dispatch-service/internal/store"

	"github.com/google/uuid"
)

const (
	baseLat = 11.0168
	baseLng = 76.9558
)

var testArea = domain.BoundingBox{
	MinLat: baseLat - 0.1, MinLng: baseLng - 0.1,
	MaxLat: baseLat + 0.1, MaxLng: baseLng + 0.1,
}

type recordingSink struct {
	mu     sync.Mutex
	events []ports.HotspotEvent
}

func (r *recordingSink) HotspotChanged(_ context.Context, ev ports.HotspotEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) kinds() []ports.HotspotEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.HotspotEventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ports.RouteEvent
}

func (r *recordingNotifier) RouteChanged(_ context.Context, ev ports.RouteEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) byKind(kind ports.RouteEventKind) []ports.RouteEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ports.RouteEvent
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func newTestCoordinator() (*Coordinator, *recordingSink, *recordingNotifier) {
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	c := New(store.New(), []ports.HotspotSink{sink}, []ports.RouteNotifier{notifier})
	return c, sink, notifier
}

func detection(lat, lng, vol float64, types ...domain.WasteType) domain.DetectionResult {
	return domain.DetectionResult{
		ID:         uuid.New(),
		Location:   domain.Coordinates{Lat: lat, Lng: lng},
		VolumeM3:   vol,
		WasteTypes: types,
		Confidence: 90,
	}
}

func TestHandleDetectionEmitsLifecycleEvents(t *testing.T) {
	c, sink, _ := newTestCoordinator()
	ctx := context.Background()

	created, err := c.HandleDetection(ctx, detection(baseLat, baseLng, 1, domain.WasteOrganic))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := c.HandleDetection(ctx, detection(baseLat, baseLng, 1, domain.WasteOrganic)); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if _, err := c.UpdateHotspotStatus(ctx, created.Hotspot.ID, domain.StatusAssigned); err != nil {
		t.Fatalf("status: %v", err)
	}

	want := []ports.HotspotEventKind{ports.HotspotCreated, ports.HotspotMerged, ports.HotspotStatusChanged}
	got := sink.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestHandleZoneEmitsRescores(t *testing.T) {
	c, sink, _ := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.HandleDetection(ctx, detection(baseLat, baseLng, 1, domain.WasteOrganic)); err != nil {
		t.Fatalf("detection: %v", err)
	}

	_, err := c.HandleZone(ctx, domain.SensitiveZone{
		Name:     "Town Hospital",
		Category: domain.ZoneHospital,
		Location: domain.Coordinates{Lat: baseLat, Lng: baseLng},
	})
	if err != nil {
		t.Fatalf("zone: %v", err)
	}

	var rescored int
	for _, k := range sink.kinds() {
		if k == ports.HotspotRescored {
			rescored++
		}
	}
	if rescored != 1 {
		t.Fatalf("rescored events = %d, want 1", rescored)
	}
}

func TestStartShiftActivatesFirstLeg(t *testing.T) {
	c, _, notifier := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.HandleDetection(ctx, detection(baseLat, baseLng, 1)); err != nil {
		t.Fatalf("detection: %v", err)
	}
	if _, err := c.HandleDetection(ctx, detection(baseLat+0.01, baseLng, 1)); err != nil {
		t.Fatalf("detection: %v", err)
	}

	plans, err := c.StartShift(ctx, ShiftRequest{
		WorkerID:   "w1",
		Start:      domain.Coordinates{Lat: baseLat, Lng: baseLng},
		Area:       testArea,
		CapacityM3: 10,
	})
	if err != nil {
		t.Fatalf("start shift: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("plans = %d, want 1", len(plans))
	}
	if plans[0].Status != domain.PlanActive {
		t.Fatalf("status = %s, want ACTIVE", plans[0].Status)
	}
	if len(plans[0].Waypoints) != 2 {
		t.Fatalf("waypoints = %d, want 2", len(plans[0].Waypoints))
	}

	active, ok := c.ActivePlan("w1")
	if !ok || active.Version != 1 {
		t.Fatalf("active plan missing or wrong version: %+v", active)
	}
	if got := notifier.byKind(ports.RoutePlanned); len(got) != 1 {
		t.Fatalf("planned events = %d, want 1", len(got))
	}
}

func TestStartShiftFallsBackOnBadStart(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.HandleDetection(ctx, detection(baseLat, baseLng, 1)); err != nil {
		t.Fatalf("detection: %v", err)
	}

	plans, err := c.StartShift(ctx, ShiftRequest{
		WorkerID: "w1",
		Start:    domain.Coordinates{Lat: math.NaN(), Lng: baseLng},
		Area:     testArea,
	})
	if err != nil {
		t.Fatalf("start shift must degrade, not fail: %v", err)
	}
	if len(plans) != 1 || len(plans[0].Waypoints) != 1 {
		t.Fatalf("fallback plan = %+v", plans)
	}
}

func TestCodeRedDetectionRepairsActiveRoute(t *testing.T) {
	c, _, notifier := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.HandleDetection(ctx, detection(baseLat, baseLng, 1)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := c.StartShift(ctx, ShiftRequest{
		WorkerID:   "w1",
		Start:      domain.Coordinates{Lat: baseLat, Lng: baseLng},
		Area:       testArea,
		CapacityM3: 100,
	}); err != nil {
		t.Fatalf("start shift: %v", err)
	}

	// Large hazardous load scores 0.3*14 + 0.4*10 + 0.3*1 = 8.5: CodeRed
	// without any zone involvement.
	urgent, err := c.HandleDetection(ctx, detection(baseLat+0.01, baseLng, 14, domain.WasteHazardous))
	if err != nil {
		t.Fatalf("urgent detection: %v", err)
	}
	if urgent.Hotspot.PriorityTier != domain.TierCodeRed {
		t.Fatalf("tier = %s, want CODE_RED", urgent.Hotspot.PriorityTier)
	}

	c.WaitRepairs()

	active, ok := c.ActivePlan("w1")
	if !ok {
		t.Fatal("active plan missing after repair")
	}
	if active.Version != 2 {
		t.Fatalf("version = %d, want 2", active.Version)
	}
	if active.RecalculationCount != 1 {
		t.Fatalf("recalculations = %d, want 1", active.RecalculationCount)
	}
	if len(active.Waypoints) != 2 {
		t.Fatalf("waypoints = %d, want 2", len(active.Waypoints))
	}
	if active.Waypoints[0].HotspotID != urgent.Hotspot.ID {
		t.Fatal("CodeRed arrival must head the repaired route")
	}

	repaired := notifier.byKind(ports.RouteRepaired)
	if len(repaired) != 1 {
		t.Fatalf("repaired events = %d, want 1", len(repaired))
	}
	if repaired[0].TriggeredBy == nil || *repaired[0].TriggeredBy != urgent.Hotspot.ID {
		t.Fatalf("triggered by = %v, want %s", repaired[0].TriggeredBy, urgent.Hotspot.ID)
	}
}

func TestRepairKeepsVisitedPrefix(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.HandleDetection(ctx, detection(baseLat+float64(i)*0.01, baseLng, 1)); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if _, err := c.StartShift(ctx, ShiftRequest{
		WorkerID:   "w1",
		Start:      domain.Coordinates{Lat: baseLat, Lng: baseLng},
		Area:       testArea,
		CapacityM3: 100,
	}); err != nil {
		t.Fatalf("start shift: %v", err)
	}

	before, _ := c.ActivePlan("w1")
	firstStop := before.Waypoints[0].HotspotID
	if err := c.UpdatePosition(ctx, "w1", 1); err != nil {
		t.Fatalf("update position: %v", err)
	}

	if _, err := c.HandleDetection(ctx, detection(baseLat+0.05, baseLng, 14, domain.WasteHazardous)); err != nil {
		t.Fatalf("urgent: %v", err)
	}
	c.WaitRepairs()

	after, ok := c.ActivePlan("w1")
	if !ok {
		t.Fatal("active plan missing")
	}
	if after.Version != 2 {
		t.Fatalf("version = %d, want 2", after.Version)
	}
	if after.Waypoints[0].HotspotID != firstStop {
		t.Fatal("visited waypoint must keep its position through repair")
	}
	if len(after.Waypoints) != 4 {
		t.Fatalf("waypoints = %d, want 4", len(after.Waypoints))
	}
}

func TestUpdatePositionAdvancesLeg(t *testing.T) {
	c, _, notifier := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.HandleDetection(ctx, detection(baseLat, baseLng, 2)); err != nil {
		t.Fatalf("detection: %v", err)
	}
	if _, err := c.HandleDetection(ctx, detection(baseLat+0.01, baseLng, 2)); err != nil {
		t.Fatalf("detection: %v", err)
	}

	plans, err := c.StartShift(ctx, ShiftRequest{
		WorkerID:   "w1",
		Start:      domain.Coordinates{Lat: baseLat, Lng: baseLng},
		Area:       testArea,
		CapacityM3: 2,
	})
	if err != nil {
		t.Fatalf("start shift: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("plans = %d, want 2 legs", len(plans))
	}

	if err := c.UpdatePosition(ctx, "w1", 1); err != nil {
		t.Fatalf("update position: %v", err)
	}

	active, ok := c.ActivePlan("w1")
	if !ok {
		t.Fatal("active plan missing")
	}
	if active.Leg != 1 {
		t.Fatalf("leg = %d, want 1", active.Leg)
	}
	if active.Status != domain.PlanActive {
		t.Fatalf("status = %s, want ACTIVE", active.Status)
	}
	// Two initial planned events plus the activation of the second leg.
	if got := notifier.byKind(ports.RoutePlanned); len(got) != 3 {
		t.Fatalf("planned events = %d, want 3", len(got))
	}
}

func TestCancelShift(t *testing.T) {
	c, _, notifier := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.StartShift(ctx, ShiftRequest{
		WorkerID: "w1",
		Start:    domain.Coordinates{Lat: baseLat, Lng: baseLng},
		Area:     testArea,
	}); err != nil {
		t.Fatalf("start shift: %v", err)
	}

	if err := c.CancelShift(ctx, "w1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok := c.ActivePlan("w1"); ok {
		t.Fatal("cancelled worker must have no active plan")
	}
	if got := notifier.byKind(ports.RouteCancelled); len(got) != 1 {
		t.Fatalf("cancelled events = %d, want 1", len(got))
	}

	if err := c.CancelShift(ctx, "w1"); !errors.Is(err, domain.ErrUnknownWorker) {
		t.Fatalf("expected ErrUnknownWorker, got %v", err)
	}
}

func TestUpdatePositionUnknownWorker(t *testing.T) {
	c, _, _ := newTestCoordinator()
	if err := c.UpdatePosition(context.Background(), "ghost", 1); !errors.Is(err, domain.ErrUnknownWorker) {
		t.Fatalf("expected ErrUnknownWorker, got %v", err)
	}
}

func TestDetectionOutsideAreaDoesNotRepair(t *testing.T) {
	c, _, notifier := newTestCoordinator()
	ctx := context.Background()

	if _, err := c.StartShift(ctx, ShiftRequest{
		WorkerID: "w1",
		Start:    domain.Coordinates{Lat: baseLat, Lng: baseLng},
		Area:     testArea,
	}); err != nil {
		t.Fatalf("start shift: %v", err)
	}

	// CodeRed, but a degree north of the worker's area.
	if _, err := c.HandleDetection(ctx, detection(baseLat+1, baseLng, 14, domain.WasteHazardous)); err != nil {
		t.Fatalf("detection: %v", err)
	}
	c.WaitRepairs()

	if got := notifier.byKind(ports.RouteRepaired); len(got) != 0 {
		t.Fatalf("repaired events = %d, want 0", len(got))
	}
	active, _ := c.ActivePlan("w1")
	if active.Version != 1 {
		t.Fatalf("version = %d, want 1", active.Version)
	}
}
