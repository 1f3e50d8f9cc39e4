package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category of a sensitive zone, ordered by vulnerability rank.
type ZoneCategory string

const (
	ZoneSchool          ZoneCategory = "SCHOOL"
	ZoneHospital        ZoneCategory = "HOSPITAL"
	ZoneCommunityCenter ZoneCategory = "COMMUNITY_CENTER"
	ZoneReligiousSite   ZoneCategory = "RELIGIOUS_SITE"
	ZoneMarket          ZoneCategory = "MARKET"
)

// VulnerabilityRank orders categories, School > Hospital > others.
func (c ZoneCategory) VulnerabilityRank() int {
	switch c {
	case ZoneSchool:
		return 5
	case ZoneHospital:
		return 4
	default:
		return 3
	}
}

// Default geofence radius applied when a zone is registered without one.
const DefaultZoneRadiusMeters = 200.0

// Daily window during which a zone is considered occupied (hours, local).
type ActiveHours struct {
	StartHour int
	EndHour   int
}

// Geofenced area whose proximity forces elevated hotspot priority.
// Immutable after creation except by administrative edit.
type SensitiveZone struct {
	ID           uuid.UUID
	Name         string
	Location     Coordinates
	RadiusMeters float64
	Category     ZoneCategory
	ActiveHours  *ActiveHours
	CreatedAt    time.Time
}
