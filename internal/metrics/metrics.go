package metrics

import "time"

// Outcomes recorded for ledger operations.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeNotFound   = "not_found"
	OutcomeAborted    = "aborted"
)

// Collector records ledger operation outcomes.
type Collector interface {
	ObserveOperation(op, outcome string, duration time.Duration)
	// AddBalanceAdjustments counts applied per-account balance increments.
	AddBalanceAdjustments(op string, n int)
}

// NoOpCollector discards everything.
type NoOpCollector struct{}

func (NoOpCollector) ObserveOperation(string, string, time.Duration) {}
func (NoOpCollector) AddBalanceAdjustments(string, int)              {}
