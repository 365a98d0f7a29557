package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multimodal-route-service/internal/config"
	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/retry"
)

func newTestPlanner(geo *fakeGeocoder, legs *LegMeasurer) *Planner {
	if geo == nil {
		return NewPlanner(nil, newTestResolver(nil), legs, testResolution())
	}
	return NewPlanner(geo, newTestResolver(nil), legs, testResolution())
}

// twoGroups lays out a tight group of three stops and a pair two kilometers east.
func twoGroups() []domain.Stop {
	return stopsEast(0, 50, 100, 2000, 2050)
}

func TestPlanMultiModal(t *testing.T) {
	home := offset(origin, -500, 0)
	cfg := config.DefaultPlanner()
	cfg.HomeBase = &home

	plan, err := newTestPlanner(nil, nil).Plan(context.Background(), twoGroups(), cfg)
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.True(t, plan.MultiModal)
	require.Len(t, plan.Clusters, 2)
	assert.Equal(t, []string{plan.Clusters[0].ID, plan.Clusters[1].ID}, plan.ClusterSequence)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, plan.Clusters[0].MemberStopIDs)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, plan.StopSequence)
	assert.Empty(t, plan.Warnings)
	assert.Empty(t, plan.Errors)

	walking := plan.Clusters[0].WalkingTimeMinutes + plan.Clusters[1].WalkingTimeMinutes
	assert.InDelta(t, walking, plan.TotalWalkingTimeMinutes, 1e-9)
	assert.InDelta(t, plan.TotalWalkingTimeMinutes+plan.TotalCyclingTimeMinutes+2*cfg.BikeParkingTimeSeconds/60,
		plan.TotalTimeMinutes, 1e-9)

	// home, 3 walks + return, hop, 2 walks + return, home
	require.Len(t, plan.Legs, 10)
	assert.Equal(t, domain.ModeCycling, plan.Legs[0].Mode)
	assert.Equal(t, home, plan.Legs[0].From)
	assert.Equal(t, domain.ModeCycling, plan.Legs[5].Mode)
	assert.Equal(t, domain.ModeCycling, plan.Legs[9].Mode)
	assert.Equal(t, home, plan.Legs[9].To)

	assert.InDelta(t, plan.TotalWalkingDistanceMeters*cfg.WalkingDetourFactor, plan.StreetWalkingDistanceMeters, 0.01)
	assert.InDelta(t, plan.TotalCyclingDistanceMeters*cfg.CyclingDetourFactor, plan.StreetCyclingDistanceMeters, 0.01)
	for _, l := range plan.Legs {
		if l.From != l.To {
			assert.True(t, l.Estimated)
		}
	}
}

func TestPlanMultiModalWithoutHomeBase(t *testing.T) {
	plan, err := newTestPlanner(nil, nil).Plan(context.Background(), twoGroups(), config.DefaultPlanner())
	require.NoError(t, err)

	require.Len(t, plan.Clusters, 2)
	// No cycling to or from home: only the hop between clusters.
	cycling := 0
	for _, l := range plan.Legs {
		if l.Mode == domain.ModeCycling {
			cycling++
		}
	}
	assert.Equal(t, 1, cycling)
	assert.InDelta(t, domain.Distance(plan.Clusters[0].Anchor, plan.Clusters[1].Anchor), plan.TotalCyclingDistanceMeters, 1e-6)
}

func TestPlanSingleMode(t *testing.T) {
	cfg := config.DefaultPlanner()
	cfg.MultiModalEnabled = false

	plan, err := newTestPlanner(nil, nil).Plan(context.Background(), stopsEast(0, 300, 100, 200), cfg)
	require.NoError(t, err)

	assert.False(t, plan.MultiModal)
	assert.Empty(t, plan.Clusters)
	assert.Equal(t, []string{"a", "c", "d", "b"}, plan.StopSequence)
	assert.Len(t, plan.Legs, 3)
	assert.InDelta(t, 300, plan.TotalWalkingDistanceMeters, 0.5)
	assert.Zero(t, plan.TotalCyclingDistanceMeters)
	assert.Equal(t, plan.TotalWalkingTimeMinutes, plan.TotalTimeMinutes)
}

func TestPlanResolvesAddressesAndMeasuresStreets(t *testing.T) {
	addrA := domain.Address{Street: "Damrak", HouseNumber: "1", PostalCode: "1012 LG", City: "Amsterdam"}
	addrB := domain.Address{Street: "Damrak", HouseNumber: "20", PostalCode: "1012 LH", City: "Amsterdam"}
	geo := newFakeGeocoder().
		on(addrA.Format(), origin, 0.95).
		on(addrB.Format(), offset(origin, 120, 0), 0.95)
	router := &fakeRouter{factor: 1.1}
	legs := NewLegMeasurer(router, &mapLegCache{}, retry.Policy{})

	stops := []domain.Stop{{ID: "a", Address: addrA}, {ID: "b", Address: addrB}}
	plan, err := newTestPlanner(geo, legs).Plan(context.Background(), stops, config.DefaultPlanner())
	require.NoError(t, err)

	require.Len(t, plan.Clusters, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, plan.StopSequence)
	for _, l := range plan.Legs {
		assert.False(t, l.Estimated)
	}
	assert.InDelta(t, plan.TotalWalkingDistanceMeters*1.1, plan.StreetWalkingDistanceMeters, 0.01)
}

func TestPlanEmptyInput(t *testing.T) {
	plan, err := newTestPlanner(nil, nil).Plan(context.Background(), nil, config.DefaultPlanner())
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.NotNil(t, plan.Clusters)
	assert.NotNil(t, plan.StopSequence)
	assert.NotNil(t, plan.Legs)
	assert.Zero(t, plan.TotalTimeMinutes)
}

func TestPlanReportsUnresolvableStops(t *testing.T) {
	stops := []domain.Stop{
		{ID: "ok", Coordinates: &origin},
		{ID: "empty"},
	}

	plan, err := newTestPlanner(nil, nil).Plan(context.Background(), stops, config.DefaultPlanner())
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, plan.StopSequence)
	require.Len(t, plan.Errors, 1)
	assert.Equal(t, "empty", plan.Errors[0].StopID)
}

func TestPlanRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultPlanner()
	cfg.PreferredClusterSize = 0
	cfg.WalkingSpeedKmh = -1

	_, err := newTestPlanner(nil, nil).Plan(context.Background(), twoGroups(), cfg)

	var verr *config.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 2)
}

func TestPlanHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPlanner(nil, nil).Plan(ctx, twoGroups(), config.DefaultPlanner())
	assert.ErrorIs(t, err, context.Canceled)
}
