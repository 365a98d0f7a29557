package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"multimodal-route-service/internal/config"
	"multimodal-route-service/internal/domain"
	"multimodal-route-service/internal/platform/obs"
	"multimodal-route-service/internal/ports"
)

// Planner runs the route pipeline: resolve, cluster, redistribute, order walks,
// sequence clusters, measure legs. Each Plan call builds a new RoutePlan.
type Planner struct {
	geocoder   ports.GeocodeProvider
	resolver   *Resolver
	legs       *LegMeasurer
	resolution config.Resolution
	now        func() time.Time
}

// NewPlanner wires a planner. geocoder, resolver and legs may be nil; a nil resolver
// gets an uncached one and a nil measurer estimates every leg.
func NewPlanner(geocoder ports.GeocodeProvider, resolver *Resolver, legs *LegMeasurer, resolution config.Resolution) *Planner {
	if resolver == nil {
		resolver = NewResolver(nil, resolution)
	}
	return &Planner{
		geocoder:   geocoder,
		resolver:   resolver,
		legs:       legs,
		resolution: resolution,
		now:        time.Now,
	}
}

// Plan builds a RoutePlan for stops. Invalid configuration fails before any work.
// Resolution problems are reported on the plan, never returned as errors.
func (p *Planner) Plan(ctx context.Context, stops []domain.Stop, cfg config.Planner) (_ *domain.RoutePlan, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if err := p.resolution.Validate(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	plan := &domain.RoutePlan{
		ID:              uuid.NewString(),
		CreatedAt:       p.now(),
		MultiModal:      cfg.MultiModalEnabled,
		HomeBase:        cfg.HomeBase,
		Clusters:        []domain.Cluster{},
		ClusterSequence: []string{},
		StopSequence:    []string{},
		Legs:            []domain.Leg{},
		Warnings:        []domain.Warning{},
		Errors:          []domain.StopError{},
	}

	ctx = obs.WithRunID(ctx, plan.ID)
	defer obs.Time(ctx, "plan")(&err)

	if len(stops) == 0 {
		return plan, nil
	}

	resolved := ResolveStops(ctx, p.resolver, p.geocoder, stops, p.resolution)
	plan.Warnings = append(plan.Warnings, resolved.Warnings...)
	plan.Errors = append(plan.Errors, resolved.Errors...)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if len(resolved.Stops) == 0 {
		return plan, nil
	}

	byID := make(map[string]domain.Stop, len(resolved.Stops))
	for _, s := range resolved.Stops {
		byID[s.ID] = s
	}

	if cfg.MultiModalEnabled {
		if err := p.planMultiModal(plan, resolved.Stops, cfg); err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
	} else {
		p.planSingleMode(plan, resolved.Stops, cfg)
	}

	plan.Legs = buildLegs(plan, byID)
	if err := p.measureLegs(ctx, plan.Legs, cfg); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	for _, l := range plan.Legs {
		switch l.Mode {
		case domain.ModeWalking:
			plan.StreetWalkingDistanceMeters += l.DistanceMeters
		case domain.ModeCycling:
			plan.StreetCyclingDistanceMeters += l.DistanceMeters
		}
	}

	return plan, nil
}

func (p *Planner) planMultiModal(plan *domain.RoutePlan, stops []domain.Stop, cfg config.Planner) error {
	params := ClusterParams{
		MaxWalkDistanceMeters: cfg.MaxWalkingDistanceMeters,
		PreferredSize:         cfg.PreferredClusterSize,
		WalkingSpeedKmh:       cfg.WalkingSpeedKmh,
	}

	clusters, err := BuildClusters(stops, params)
	if err != nil {
		return err
	}
	clusters, err = Redistribute(clusters, stops, params)
	if err != nil {
		return err
	}

	cycling := SequenceClusters(clusters, cfg.HomeBase, cfg.CyclingSpeedKmh)

	byID := make(map[string]domain.Cluster, len(clusters))
	for _, c := range clusters {
		byID[c.ID] = c
	}

	for _, id := range cycling.OrderedClusterIDs {
		c := byID[id]
		plan.Clusters = append(plan.Clusters, c)
		plan.ClusterSequence = append(plan.ClusterSequence, id)
		plan.StopSequence = append(plan.StopSequence, c.OrderedStopIDs...)
		plan.TotalWalkingDistanceMeters += c.WalkingDistanceMeters
		plan.TotalWalkingTimeMinutes += c.WalkingTimeMinutes
	}

	plan.TotalCyclingDistanceMeters = cycling.DistanceMeters
	plan.TotalCyclingTimeMinutes = cycling.TimeMinutes
	parkingMinutes := float64(len(clusters)) * cfg.BikeParkingTimeSeconds / 60
	plan.TotalTimeMinutes = plan.TotalWalkingTimeMinutes + plan.TotalCyclingTimeMinutes + parkingMinutes
	return nil
}

func (p *Planner) planSingleMode(plan *domain.RoutePlan, stops []domain.Stop, cfg config.Planner) {
	route := OptimizeSingleMode(stops, SingleModeOptions{
		WalkingSpeedKmh:    cfg.WalkingSpeedKmh,
		PrioritizeCategory: cfg.PrioritizeCategoryGrouping,
		TwoOpt:             cfg.SingleModeTwoOpt,
	})

	plan.StopSequence = route.OrderedStopIDs
	plan.TotalWalkingDistanceMeters = route.DistanceMeters
	plan.TotalWalkingTimeMinutes = route.TimeMinutes
	plan.TotalTimeMinutes = route.TimeMinutes
}

// buildLegs lays out the unmeasured legs in travel order.
func buildLegs(plan *domain.RoutePlan, stops map[string]domain.Stop) []domain.Leg {
	legs := []domain.Leg{}

	if !plan.MultiModal {
		for i := 1; i < len(plan.StopSequence); i++ {
			from, to := stops[plan.StopSequence[i-1]], stops[plan.StopSequence[i]]
			legs = append(legs, domain.Leg{
				Mode:       domain.ModeWalking,
				FromStopID: from.ID,
				ToStopID:   to.ID,
				From:       *from.Coordinates,
				To:         *to.Coordinates,
			})
		}
		return legs
	}

	var (
		prevAnchor *domain.Coordinates
		prevStopID string
	)
	if plan.HomeBase != nil {
		prevAnchor = plan.HomeBase
	}

	for _, c := range plan.Clusters {
		if prevAnchor != nil {
			legs = append(legs, domain.Leg{
				Mode:       domain.ModeCycling,
				ClusterID:  c.ID,
				FromStopID: prevStopID,
				ToStopID:   c.AnchorStopID,
				From:       *prevAnchor,
				To:         c.Anchor,
			})
		}

		at, atID := c.Anchor, c.AnchorStopID
		for _, id := range c.OrderedStopIDs {
			next := stops[id]
			legs = append(legs, domain.Leg{
				Mode:       domain.ModeWalking,
				ClusterID:  c.ID,
				FromStopID: atID,
				ToStopID:   id,
				From:       at,
				To:         *next.Coordinates,
			})
			at, atID = *next.Coordinates, id
		}
		legs = append(legs, domain.Leg{
			Mode:       domain.ModeWalking,
			ClusterID:  c.ID,
			FromStopID: atID,
			ToStopID:   c.AnchorStopID,
			From:       at,
			To:         c.Anchor,
		})

		anchor := c.Anchor
		prevAnchor = &anchor
		prevStopID = c.AnchorStopID
	}

	if plan.HomeBase != nil && prevAnchor != nil {
		legs = append(legs, domain.Leg{
			Mode:       domain.ModeCycling,
			FromStopID: prevStopID,
			From:       *prevAnchor,
			To:         *plan.HomeBase,
		})
	}

	return legs
}

// measureLegs fills distances concurrently, at most BatchSize requests at a time.
func (p *Planner) measureLegs(ctx context.Context, legs []domain.Leg, cfg config.Planner) error {
	estimates := map[domain.TravelMode]LegEstimate{
		domain.ModeWalking: {DetourFactor: cfg.WalkingDetourFactor, SpeedKmh: cfg.WalkingSpeedKmh},
		domain.ModeCycling: {DetourFactor: cfg.CyclingDetourFactor, SpeedKmh: cfg.CyclingSpeedKmh},
	}

	var g errgroup.Group
	g.SetLimit(max(1, p.resolution.BatchSize))
	for i := range legs {
		g.Go(func() error {
			l := &legs[i]
			r, estimated := p.legs.Measure(ctx, l.From, l.To, l.Mode, estimates[l.Mode])
			l.DistanceMeters = r.DistanceMeters
			l.DurationSeconds = r.DurationSeconds
			l.Estimated = estimated
			return nil
		})
	}
	_ = g.Wait()

	return ctx.Err()
}
