package health

import (
	"context"
	"fmt"
	"time"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Report is the per-dependency outcome of a readiness probe.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ReadinessUseCase describes readiness verification.
type ReadinessUseCase interface {
	Ready(ctx context.Context) (Report, error)
}

type service struct {
	checkers []Checker
	timeout  time.Duration
}

// NewService aggregates dependency checkers.
func NewService(checkers ...Checker) ReadinessUseCase {
	return &service{checkers: checkers, timeout: 3 * time.Second}
}

// Ready runs every checker and returns the first failure wrapped with its name.
func (s *service) Ready(ctx context.Context) (Report, error) {
	rep := Report{Status: "ok", Checks: make(map[string]string, len(s.checkers))}
	var firstErr error
	for _, ch := range s.checkers {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := ch.Check(cctx)
		cancel()
		if err != nil {
			rep.Checks[ch.Name()] = "error"
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", ch.Name(), err)
			}
			continue
		}
		rep.Checks[ch.Name()] = "ok"
	}
	if firstErr != nil {
		rep.Status = "unavailable"
	}
	return rep, firstErr
}
