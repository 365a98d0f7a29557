package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category is a small tag (e.g. package type) used only as a grouping preference.
type Category string

// Represents a single delivery or visit target.
// The coordinate stays nil until resolved.
type Stop struct {
	ID          string       `json:"id"`
	Address     Address      `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Category    Category     `json:"category,omitempty"`
}

func (s Stop) Located() bool { return s.Coordinates != nil }

// Validate is run once at the system boundary.
func (s Stop) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("stop: id must be non-empty")
	}
	if s.Coordinates == nil {
		if err := s.Address.Validate(); err != nil {
			return fmt.Errorf("stop %q: %w", s.ID, err)
		}
	}
	return nil
}

// WithCoordinates returns a copy of the stop located at c.
func (s Stop) WithCoordinates(c Coordinates) Stop {
	s.Coordinates = &c
	return s
}

type Accuracy string

const (
	AccuracyExact        Accuracy = "exact"
	AccuracyInterpolated Accuracy = "interpolated"
	AccuracyApproximate  Accuracy = "approximate"
)

type Source string

const (
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
	SourceInput    Source = "input"
)

// Resolution is a coordinate with its confidence metadata.
type Resolution struct {
	Coordinates Coordinates `json:"coordinates"`
	Confidence  float64     `json:"confidence"`
	Accuracy    Accuracy    `json:"accuracy"`
	Source      Source      `json:"source"`
	Formatted   string      `json:"formatted,omitempty"`
	ResolvedAt  time.Time   `json:"resolved_at"`
}

// Stale reports whether the resolution is older than ttl. A non-positive ttl never expires.
func (r Resolution) Stale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(r.ResolvedAt) > ttl
}
