// Package usage tracks successful generations for one session and derives a
// display-only remaining-credit estimate.
package usage

import "math"

type Status string

const (
	StatusOK        Status = "ok"
	StatusWarning   Status = "warning"
	StatusExhausted Status = "exhausted"
)

// Counter is per-session state. The zero value is a fresh session.
type Counter struct {
	Generations int `json:"generations"`
}

// Record counts one successful generation. Failures must not be recorded.
func (c *Counter) Record() {
	c.Generations++
}

func (c Counter) Count() int {
	return c.Generations
}

// Policy holds the credit arithmetic. It gates nothing.
type Policy struct {
	WelcomeCredit  float64
	UnitCost       float64
	WarnBelow      float64
	ExhaustedBelow float64
}

func DefaultPolicy() Policy {
	return Policy{
		WelcomeCredit:  5.0,
		UnitCost:       0.01,
		WarnBelow:      1.0,
		ExhaustedBelow: 0.5,
	}
}

// Remaining is WelcomeCredit - count*UnitCost, rounded to cents.
func (p Policy) Remaining(c Counter) float64 {
	return math.Round((p.WelcomeCredit-float64(c.Count())*p.UnitCost)*100) / 100
}

func (p Policy) Status(c Counter) Status {
	remaining := p.Remaining(c)
	switch {
	case remaining < p.ExhaustedBelow:
		return StatusExhausted
	case remaining < p.WarnBelow:
		return StatusWarning
	default:
		return StatusOK
	}
}

type Snapshot struct {
	Generations     int     `json:"generations"`
	RemainingCredit float64 `json:"remaining_credit"`
	CostPerRun      float64 `json:"estimated_cost_per_run"`
	Status          Status  `json:"status"`
}

func (p Policy) Snapshot(c Counter) Snapshot {
	return Snapshot{
		Generations:     c.Count(),
		RemainingCredit: p.Remaining(c),
		CostPerRun:      p.UnitCost,
		Status:          p.Status(c),
	}
}
