package services

import (
	"math"

	"waste-dispatch-service/internal/domain"
)

// Scoring weights for the three factors.
const (
	volumeWeight    = 0.3
	hazardWeight    = 0.4
	proximityWeight = 0.3
)

// A hotspot at or inside this distance of a sensitive zone is CodeRed
// regardless of its numeric score.
const ZoneOverrideMeters = 200.0

// Numeric tier thresholds applied when the zone override does not fire.
const (
	tierCodeRedScore = 8.0
	tierHighScore    = 6.0
	tierMediumScore  = 4.0
)

// Hazard severity by waste type. The hazard factor is the max over the
// hotspot's tags; unlisted tags score zero.
var hazardFactors = map[domain.WasteType]float64{
	domain.WasteMedical:       10,
	domain.WasteHazardous:     10,
	domain.WasteBurning:       8,
	domain.WasteStagnantWater: 7,
	domain.WasteMixed:         5,
	domain.WasteOrganic:       3,
	domain.WasteRecyclable:    2,
}

// Scoring input snapshot. NearestZoneMeters is +Inf when no sensitive zone
// is known.
type PriorityInput struct {
	VolumeM3          float64
	WasteTypes        []domain.WasteType
	NearestZoneMeters float64
}

// Score computes the priority score and tier for a hotspot snapshot.
//
// Pure function over its input, safe to call concurrently; it never fails
// on valid numeric input. The volume factor is uncapped: extreme
// accumulations are meant to dominate tie-breaks.
//
// The tier is CodeRed whenever the nearest zone is within the override
// distance, even if the numeric score is arbitrarily low. The score is
// still computed and recorded for reporting, so a CodeRed hotspot can carry
// a score below the CodeRed numeric threshold.
func Score(in PriorityInput) (float64, domain.Tier) {
	hazard := 0.0
	for _, w := range in.WasteTypes {
		if f, ok := hazardFactors[w]; ok && f > hazard {
			hazard = f
		}
	}

	proximity := proximityFactor(in.NearestZoneMeters)

	score := volumeWeight*in.VolumeM3 + hazardWeight*hazard + proximityWeight*proximity

	if in.NearestZoneMeters <= ZoneOverrideMeters {
		return score, domain.TierCodeRed
	}
	return score, tierForScore(score)
}

func proximityFactor(nearestZoneMeters float64) float64 {
	switch {
	case math.IsNaN(nearestZoneMeters):
		return 1
	case nearestZoneMeters <= 200:
		return 10
	case nearestZoneMeters <= 500:
		return 7
	case nearestZoneMeters <= 1000:
		return 4
	default:
		return 1
	}
}

func tierForScore(score float64) domain.Tier {
	switch {
	case score >= tierCodeRedScore:
		return domain.TierCodeRed
	case score >= tierHighScore:
		return domain.TierHigh
	case score >= tierMediumScore:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}
