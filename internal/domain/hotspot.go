package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Categorical waste tag attached to a hotspot or detection.
// Tags outside the known set are carried through unchanged and score as
// unclassified.
type WasteType string

const (
	WasteOrganic       WasteType = "ORGANIC"
	WasteRecyclable    WasteType = "RECYCLABLE"
	WasteMixed         WasteType = "MIXED"
	WasteStagnantWater WasteType = "STAGNANT_WATER"
	WasteBurning       WasteType = "BURNING"
	WasteMedical       WasteType = "MEDICAL"
	WasteHazardous     WasteType = "HAZARDOUS"
)

// Discrete priority class, CodeRed > High > Medium > Low.
type Tier string

const (
	TierCodeRed Tier = "CODE_RED"
	TierHigh    Tier = "HIGH"
	TierMedium  Tier = "MEDIUM"
	TierLow     Tier = "LOW"
)

// Hotspot lifecycle status.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusVerified   Status = "VERIFIED"
)

// Terminal reports whether the status removes the hotspot from routing.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusVerified
}

// CanTransitionTo enforces the monotonic status lattice
// Pending -> Assigned -> InProgress -> Completed -> Verified.
// The sole permitted regression is InProgress -> Pending, used when the
// validation collaborator rejects completed work.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusAssigned
	case StatusAssigned:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted || next == StatusPending
	case StatusCompleted:
		return next == StatusVerified
	default:
		return false
	}
}

// Reference to the nearest sensitive zone, recorded on the hotspot when one
// is within lookup range.
type ZoneProximity struct {
	ZoneID         uuid.UUID
	Category       ZoneCategory
	DistanceMeters float64
}

// Geo-located, possibly-merged record of detected waste needing collection.
//
// PriorityTier is always the tier implied by PriorityScore plus the
// sensitive-zone override; it is never set independently of a scoring pass.
type Hotspot struct {
	ID                uuid.UUID
	AreaName          string
	Location          Coordinates
	VolumeM3          float64
	WasteTypes        []WasteType
	PriorityScore     float64
	PriorityTier      Tier
	Status            Status
	NearestZone       *ZoneProximity
	SourceDetections  []uuid.UUID
	NeedsManualReview bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasWasteType reports whether the tag is present on the hotspot.
func (h *Hotspot) HasWasteType(t WasteType) bool {
	for _, w := range h.WasteTypes {
		if w == t {
			return true
		}
	}
	return false
}

// Nominal bulk density used to estimate collection weight from volume.
const wasteDensityKgPerM3 = 120.0

// EstimatedWeightKg estimates the collection weight from accumulated volume.
func (h *Hotspot) EstimatedWeightKg() float64 {
	return h.VolumeM3 * wasteDensityKgPerM3
}

// Collection vehicle class recommended for a hotspot.
type VehicleType string

const (
	VehicleERickshaw VehicleType = "E_RICKSHAW"
	VehiclePickup    VehicleType = "PICKUP"
	VehicleCompactor VehicleType = "COMPACTOR"
)

// RecommendedVehicle picks a vehicle class from tier and volume.
func (h *Hotspot) RecommendedVehicle() VehicleType {
	switch {
	case h.PriorityTier == TierCodeRed || h.VolumeM3 >= 3:
		return VehicleCompactor
	case h.VolumeM3 >= 1:
		return VehiclePickup
	default:
		return VehicleERickshaw
	}
}

// Dispatch action recommended for a hotspot.
type DispatchAction string

const (
	ActionDispatchNow DispatchAction = "DISPATCH_NOW"
	ActionAddToRoute  DispatchAction = "ADD_TO_ROUTE"
	ActionMonitor     DispatchAction = "MONITOR"
)

// RecommendedAction derives the dispatch action from the priority tier.
func (h *Hotspot) RecommendedAction() DispatchAction {
	switch h.PriorityTier {
	case TierCodeRed:
		return ActionDispatchNow
	case TierHigh, TierMedium:
		return ActionAddToRoute
	default:
		return ActionMonitor
	}
}

// RequiresAfterPhoto reports whether cleanup verification needs an
// after-photo. Required for the two top tiers.
func (h *Hotspot) RequiresAfterPhoto() bool {
	return h.PriorityTier == TierCodeRed || h.PriorityTier == TierHigh
}

// Transition applies a status change after validating it against the lattice.
func (h *Hotspot) Transition(next Status, now time.Time) error {
	if !h.Status.CanTransitionTo(next) {
		return fmt.Errorf("hotspot %s: %s -> %s: %w", h.ID, h.Status, next, ErrInvalidTransition)
	}
	h.Status = next
	h.UpdatedAt = now
	return nil
}

// Clone returns a deep copy safe to hand to readers while the original keeps
// being mutated under the store's locks.
func (h *Hotspot) Clone() Hotspot {
	cp := *h
	cp.WasteTypes = append([]WasteType(nil), h.WasteTypes...)
	cp.SourceDetections = append([]uuid.UUID(nil), h.SourceDetections...)
	if h.NearestZone != nil {
		z := *h.NearestZone
		cp.NearestZone = &z
	}
	return cp
}
