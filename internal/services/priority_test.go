package services

import (
	"math"
	"testing"

	"waste-dispatch-service/internal/domain"
)

func TestScoreWorkedExampleOrganic(t *testing.T) {
	// 0.4 m3 organic, 300m from the nearest zone (<=500m proximity band).
	score, tier := Score(PriorityInput{
		VolumeM3:          0.4,
		WasteTypes:        []domain.WasteType{domain.WasteOrganic},
		NearestZoneMeters: 300,
	})

	want := 0.3*0.4 + 0.4*3 + 0.3*7
	if math.Abs(score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", score, want)
	}
	// 3.42 < 4: Low, not Medium.
	if tier != domain.TierLow {
		t.Fatalf("tier = %s, want %s", tier, domain.TierLow)
	}
}

func TestScoreWorkedExampleHazardousNearSchool(t *testing.T) {
	// 5 m3 hazardous at 150m from a school: override and numeric rule agree.
	score, tier := Score(PriorityInput{
		VolumeM3:          5,
		WasteTypes:        []domain.WasteType{domain.WasteHazardous},
		NearestZoneMeters: 150,
	})

	want := 0.3*5 + 0.4*10 + 0.3*10
	if math.Abs(score-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", score, want)
	}
	if want != 8.5 {
		t.Fatalf("worked example drifted: %v", want)
	}
	if tier != domain.TierCodeRed {
		t.Fatalf("tier = %s, want %s", tier, domain.TierCodeRed)
	}
}

func TestZoneOverrideDominatesMinimumHazardCase(t *testing.T) {
	// Minimum-hazard case: tiny organic volume, yet the tier must be
	// CodeRed purely from zone proximity. Assert the tier, never infer it
	// from the score: the score here is far below the numeric threshold.
	score, tier := Score(PriorityInput{
		VolumeM3:          0.01,
		WasteTypes:        []domain.WasteType{domain.WasteOrganic},
		NearestZoneMeters: 200, // boundary inclusive
	})

	if tier != domain.TierCodeRed {
		t.Fatalf("tier = %s, want %s via zone override", tier, domain.TierCodeRed)
	}
	if score >= 8 {
		t.Fatalf("score = %v, expected the asymmetric low-score CodeRed case", score)
	}

	_, tier = Score(PriorityInput{
		VolumeM3:          0.01,
		WasteTypes:        []domain.WasteType{domain.WasteOrganic},
		NearestZoneMeters: 200.1,
	})
	if tier == domain.TierCodeRed {
		t.Fatal("override fired beyond 200m")
	}
}

func TestScoreMonotonicInVolume(t *testing.T) {
	prev := math.Inf(-1)
	for vol := 0.0; vol <= 100; vol += 0.5 {
		score, _ := Score(PriorityInput{
			VolumeM3:          vol,
			WasteTypes:        []domain.WasteType{domain.WasteMixed},
			NearestZoneMeters: 800,
		})
		if score < prev {
			t.Fatalf("score decreased at volume %v: %v < %v", vol, score, prev)
		}
		prev = score
	}
}

func TestHazardFactorIsMaxOverTypes(t *testing.T) {
	low, _ := Score(PriorityInput{
		VolumeM3:          1,
		WasteTypes:        []domain.WasteType{domain.WasteRecyclable},
		NearestZoneMeters: math.Inf(1),
	})
	both, _ := Score(PriorityInput{
		VolumeM3:          1,
		WasteTypes:        []domain.WasteType{domain.WasteRecyclable, domain.WasteMedical},
		NearestZoneMeters: math.Inf(1),
	})

	wantDiff := 0.4 * (10 - 2)
	if math.Abs((both-low)-wantDiff) > 1e-9 {
		t.Fatalf("max-hazard contribution = %v, want %v", both-low, wantDiff)
	}

	unknown, _ := Score(PriorityInput{
		VolumeM3:          1,
		WasteTypes:        []domain.WasteType{"GLITTER"},
		NearestZoneMeters: math.Inf(1),
	})
	none, _ := Score(PriorityInput{
		VolumeM3:          1,
		WasteTypes:        nil,
		NearestZoneMeters: math.Inf(1),
	})
	if unknown != none {
		t.Fatalf("unclassified type must score zero hazard: %v vs %v", unknown, none)
	}
}

func TestProximityStepFunction(t *testing.T) {
	cases := []struct {
		meters float64
		want   float64
	}{
		{0, 10},
		{200, 10},
		{200.1, 7},
		{500, 7},
		{500.1, 4},
		{1000, 4},
		{1000.1, 1},
		{math.Inf(1), 1},
	}
	for _, tc := range cases {
		if got := proximityFactor(tc.meters); got != tc.want {
			t.Errorf("proximityFactor(%v) = %v, want %v", tc.meters, got, tc.want)
		}
	}
}

func TestTierThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.Tier
	}{
		{8.0, domain.TierCodeRed},
		{7.99, domain.TierHigh},
		{6.0, domain.TierHigh},
		{5.99, domain.TierMedium},
		{4.0, domain.TierMedium},
		{3.99, domain.TierLow},
		{0, domain.TierLow},
	}
	for _, tc := range cases {
		if got := tierForScore(tc.score); got != tc.want {
			t.Errorf("tierForScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
