package ratelimiter

import "time"

// Limiter decides whether a client identified by key may make a request. When
// it may not, the returned duration is how long to wait.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}
