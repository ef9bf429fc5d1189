package gateway

import "time"

// DefaultSuccessRate is the probability a simulated payment succeeds.
const DefaultSuccessRate = 0.90

// Config holds simulator tuning.
type Config struct {
	SuccessRate float64
	Latency     time.Duration
}
