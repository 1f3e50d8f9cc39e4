// Package notify publishes hotspot and route events to collaborators over
// redis pub/sub. The wire shape is JSON; subscribers are the notification
// and UI services surrounding this core.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	HotspotChannel = "dispatch.hotspots"
	RouteChannel   = "dispatch.routes"
)

// RedisNotifier implements the HotspotSink and RouteNotifier ports over a
// redis connection.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(addr string) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Ping verifies connectivity at composition time.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	if err := n.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis notifier: ping: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

type hotspotMessage struct {
	Kind              string             `json:"kind"`
	HotspotID         string             `json:"hotspot_id"`
	AreaName          string             `json:"area_name,omitempty"`
	Lat               float64            `json:"lat"`
	Lng               float64            `json:"lng"`
	VolumeM3          float64            `json:"volume_m3"`
	WasteTypes        []domain.WasteType `json:"waste_types"`
	PriorityScore     float64            `json:"priority_score"`
	PriorityTier      domain.Tier        `json:"priority_tier"`
	Status            domain.Status      `json:"status"`
	EstimatedWeightKg float64            `json:"estimated_weight_kg"`
	Vehicle           domain.VehicleType `json:"recommended_vehicle"`
	Action            string             `json:"recommended_action"`
	AfterPhoto        bool               `json:"requires_after_photo"`
	NeedsManualReview bool               `json:"needs_manual_review"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// HotspotChanged publishes the hotspot change on the hotspot channel.
func (n *RedisNotifier) HotspotChanged(ctx context.Context, ev ports.HotspotEvent) error {
	h := ev.Hotspot
	msg := hotspotMessage{
		Kind:              string(ev.Kind),
		HotspotID:         h.ID.String(),
		AreaName:          h.AreaName,
		Lat:               h.Location.Lat,
		Lng:               h.Location.Lng,
		VolumeM3:          h.VolumeM3,
		WasteTypes:        h.WasteTypes,
		PriorityScore:     h.PriorityScore,
		PriorityTier:      h.PriorityTier,
		Status:            h.Status,
		EstimatedWeightKg: h.EstimatedWeightKg(),
		Vehicle:           h.RecommendedVehicle(),
		Action:            string(h.RecommendedAction()),
		AfterPhoto:        h.RequiresAfterPhoto(),
		NeedsManualReview: h.NeedsManualReview,
		UpdatedAt:         h.UpdatedAt,
	}
	return n.publish(ctx, HotspotChannel, msg)
}

type routeMessage struct {
	Kind        string            `json:"kind"`
	PlanID      string            `json:"plan_id"`
	WorkerID    string            `json:"worker_id"`
	Version     int               `json:"version"`
	Leg         int               `json:"leg"`
	TriggeredBy string            `json:"triggered_by,omitempty"`
	Waypoints   []routeWaypoint   `json:"waypoints"`
	TotalMeters float64           `json:"total_meters"`
	TotalVolume float64           `json:"total_volume_m3"`
	Status      domain.PlanStatus `json:"status"`
	Recalcs     int               `json:"recalculation_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

type routeWaypoint struct {
	HotspotID        string      `json:"hotspot_id"`
	Lat              float64     `json:"lat"`
	Lng              float64     `json:"lng"`
	Tier             domain.Tier `json:"tier"`
	Sequence         int         `json:"sequence"`
	CumulativeMeters float64     `json:"cumulative_meters"`
}

// RouteChanged publishes the committed plan version on the route channel,
// tagged with whether it was a full plan or a repair and which hotspot
// triggered it.
func (n *RedisNotifier) RouteChanged(ctx context.Context, ev ports.RouteEvent) error {
	p := ev.Plan
	msg := routeMessage{
		Kind:        string(ev.Kind),
		PlanID:      p.ID.String(),
		WorkerID:    p.WorkerID,
		Version:     p.Version,
		Leg:         p.Leg,
		Waypoints:   make([]routeWaypoint, 0, len(p.Waypoints)),
		TotalMeters: p.TotalMeters,
		TotalVolume: p.TotalVolumeM3,
		Status:      p.Status,
		Recalcs:     p.RecalculationCount,
		CreatedAt:   p.CreatedAt,
	}
	if ev.TriggeredBy != nil {
		msg.TriggeredBy = ev.TriggeredBy.String()
	}
	for _, wp := range p.Waypoints {
		msg.Waypoints = append(msg.Waypoints, routeWaypoint{
			HotspotID:        wp.HotspotID.String(),
			Lat:              wp.Location.Lat,
			Lng:              wp.Location.Lng,
			Tier:             wp.Tier,
			Sequence:         wp.Sequence,
			CumulativeMeters: wp.CumulativeMeters,
		})
	}
	return n.publish(ctx, RouteChannel, msg)
}

func (n *RedisNotifier) publish(ctx context.Context, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("notify: marshal %s message: %w", channel, err)
	}
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", channel, err)
	}
	return nil
}
