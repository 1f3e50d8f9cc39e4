package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Hazard indicators reported by the external classifier alongside the
// categorical waste types.
type HazardFlags struct {
	StagnantWater bool
	Burning       bool
	Medical       bool
	Hazardous     bool
}

// Classifier confidence below this is tagged for manual review. Reviewed
// detections are still ingested; the flag is propagated, never dropped.
const ReviewConfidenceThreshold = 70.0

// One classifier result from a single submitted image. Read-only input:
// this core never persists detections, only the fields derived onto the
// hotspot they create or merge into.
type DetectionResult struct {
	ID                uuid.UUID
	AreaName          string
	Location          Coordinates
	WasteTypes        []WasteType
	VolumeM3          float64
	Confidence        float64
	Hazards           HazardFlags
	NeedsManualReview bool
	Timestamp         time.Time
}

// Validate checks the detection at the ingestion boundary. Classifier output
// arrives as a closed struct, never an untyped blob, and malformed
// coordinates are rejected before any spatial lookup.
func (d DetectionResult) Validate() error {
	if !d.Location.Valid() {
		return fmt.Errorf("detection %s: lat=%v lng=%v: %w", d.ID, d.Location.Lat, d.Location.Lng, ErrInvalidLocation)
	}
	if d.VolumeM3 <= 0 {
		return fmt.Errorf("detection %s: volume must be positive, got %v", d.ID, d.VolumeM3)
	}
	return nil
}

// ReviewRequired reports whether the detection must be flagged for manual
// review, either by the collaborator's tag or by the confidence contract.
func (d DetectionResult) ReviewRequired() bool {
	return d.NeedsManualReview || d.Confidence < ReviewConfidenceThreshold
}

// EffectiveWasteTypes folds hazard flags into the categorical tag set so the
// scoring engine sees a single vocabulary.
func (d DetectionResult) EffectiveWasteTypes() []WasteType {
	out := append([]WasteType(nil), d.WasteTypes...)
	add := func(t WasteType) {
		for _, w := range out {
			if w == t {
				return
			}
		}
		out = append(out, t)
	}
	if d.Hazards.StagnantWater {
		add(WasteStagnantWater)
	}
	if d.Hazards.Burning {
		add(WasteBurning)
	}
	if d.Hazards.Medical {
		add(WasteMedical)
	}
	if d.Hazards.Hazardous {
		add(WasteHazardous)
	}
	return out
}
