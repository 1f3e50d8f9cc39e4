package ports

import (
	"context"

	"waste-dispatch-service/internal/domain"

	"github.com/google/uuid"
)

// Kind of route event carried to the notification collaborator.
type RouteEventKind string

const (
	RoutePlanned   RouteEventKind = "planned"
	RouteRepaired  RouteEventKind = "repaired"
	RouteCancelled RouteEventKind = "cancelled"
)

// Versioned route change event. Repaired events name the hotspot that
// triggered the recalculation.
type RouteEvent struct {
	Kind        RouteEventKind
	Plan        domain.RoutePlan
	TriggeredBy *uuid.UUID
}

// Port: notification collaborator receiving committed plan versions.
type RouteNotifier interface {
	// Deliver one committed route version.
	RouteChanged(ctx context.Context, ev RouteEvent) error
}
