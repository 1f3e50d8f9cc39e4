package ports

import (
	"context"

	"waste-dispatch-service/internal/domain"
)

// Kind of hotspot mutation carried by an event.
type HotspotEventKind string

const (
	HotspotCreated       HotspotEventKind = "created"
	HotspotMerged        HotspotEventKind = "merged"
	HotspotStatusChanged HotspotEventKind = "status_changed"
	HotspotRescored      HotspotEventKind = "rescored"
)

// Full-record hotspot change event, emitted on every create, merge, rescore
// and status change. NeedsManualReview on the record is propagated, never
// dropped, so downstream collaborators can queue low-confidence work.
type HotspotEvent struct {
	Kind    HotspotEventKind
	Hotspot domain.Hotspot
}

// Port: persistence and UI collaborators consuming hotspot changes.
type HotspotSink interface {
	// Deliver one hotspot change. Implementations own retry/durability.
	HotspotChanged(ctx context.Context, ev HotspotEvent) error
}
