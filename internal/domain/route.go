package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoutePlan lifecycle status.
type PlanStatus string

const (
	PlanPlanned   PlanStatus = "PLANNED"
	PlanActive    PlanStatus = "ACTIVE"
	PlanCompleted PlanStatus = "COMPLETED"
	PlanCancelled PlanStatus = "CANCELLED"
)

// One stop in a route. Carries a snapshot of the routing-relevant hotspot
// fields so the planner never reads live store state.
type Waypoint struct {
	HotspotID        uuid.UUID
	Location         Coordinates
	Tier             Tier
	VolumeM3         float64
	Sequence         int
	CumulativeMeters float64
}

// Ordered, capacity-respecting visiting sequence over a worker's assigned
// hotspots. Plans are immutable once committed: recalculation produces a new
// version and the coordinator swaps the active pointer atomically, so a
// worker never observes a torn intermediate state.
type RoutePlan struct {
	ID                 uuid.UUID
	WorkerID           string
	Version            int
	Leg                int
	Start              Coordinates
	VehicleCapacityM3  float64
	Waypoints          []Waypoint
	TotalMeters        float64
	TotalVolumeM3      float64
	Status             PlanStatus
	RecalculationCount int
	CreatedAt          time.Time
}

// Clone returns a deep copy of the plan.
func (p *RoutePlan) Clone() RoutePlan {
	cp := *p
	cp.Waypoints = append([]Waypoint(nil), p.Waypoints...)
	return cp
}
