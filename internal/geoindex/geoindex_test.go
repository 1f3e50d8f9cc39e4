package geoindex

import (
	"testing"

	"waste-dispatch-service/internal/domain"

	"github.com/google/uuid"
)

// latOffset returns a point meters north of base.
func latOffset(base domain.Coordinates, meters float64) domain.Coordinates {
	return domain.Coordinates{Lat: base.Lat + meters/domain.MetersPerDegreeLat, Lng: base.Lng}
}

func TestQueryRadiusBoundaryInclusive(t *testing.T) {
	ix := New()
	center := domain.Coordinates{Lat: 11.0168, Lng: 76.9558}

	at50 := uuid.New()
	at51 := uuid.New()
	ix.Insert(at50, latOffset(center, 50.0))
	ix.Insert(at51, latOffset(center, 51.0))

	got := ix.QueryRadius(center, 50.0)
	if len(got) != 1 || got[0] != at50 {
		t.Fatalf("radius 50 query = %v, want only the 50m point", got)
	}
}

func TestQueryRadiusCrossesCellBoundaries(t *testing.T) {
	ix := New()
	// Just below a 0.01-degree cell edge; the neighbor sits just above it.
	center := domain.Coordinates{Lat: 10.9999, Lng: 76.9558}
	neighbor := domain.Coordinates{Lat: 11.0001, Lng: 76.9558}

	id := uuid.New()
	ix.Insert(id, neighbor)

	got := ix.QueryRadius(center, 100)
	if len(got) != 1 || got[0] != id {
		t.Fatalf("expected neighbor across cell edge, got %v", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ix := New()
	id := uuid.New()
	loc := domain.Coordinates{Lat: 11, Lng: 77}

	ix.Insert(id, loc)
	ix.Remove(id)
	ix.Remove(id) // unknown id: no-op

	if ix.Len() != 0 {
		t.Fatalf("len = %d, want 0", ix.Len())
	}
	if got := ix.QueryRadius(loc, 1000); len(got) != 0 {
		t.Fatalf("removed point still returned: %v", got)
	}
}

func TestInsertRelocates(t *testing.T) {
	ix := New()
	id := uuid.New()
	old := domain.Coordinates{Lat: 11, Lng: 77}
	moved := domain.Coordinates{Lat: 11.1, Lng: 77}

	ix.Insert(id, old)
	ix.Insert(id, moved)

	if got := ix.QueryRadius(old, 100); len(got) != 0 {
		t.Fatalf("stale location still indexed: %v", got)
	}
	if got := ix.QueryRadius(moved, 100); len(got) != 1 {
		t.Fatalf("new location not indexed: %v", got)
	}
	if ix.Len() != 1 {
		t.Fatalf("len = %d, want 1", ix.Len())
	}
}

func TestNearestOrdering(t *testing.T) {
	ix := New()
	center := domain.Coordinates{Lat: 11, Lng: 77}

	near := uuid.New()
	mid := uuid.New()
	far := uuid.New()
	ix.Insert(far, latOffset(center, 900))
	ix.Insert(near, latOffset(center, 100))
	ix.Insert(mid, latOffset(center, 400))

	got := ix.Nearest(center, 2)
	if len(got) != 2 || got[0] != near || got[1] != mid {
		t.Fatalf("nearest 2 = %v, want [near mid]", got)
	}

	all := ix.Nearest(center, 10)
	if len(all) != 3 || all[2] != far {
		t.Fatalf("nearest 10 = %v, want all three ending with far", all)
	}

	if got := ix.Nearest(center, 0); got != nil {
		t.Fatalf("k=0 should return nil, got %v", got)
	}
}
