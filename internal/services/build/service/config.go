// Package service runs content builds: prepare, execute, finalize and the
// supervisor that detaches runs from the request that triggered them
package service

import (
	"fmt"
	"os"
	"time"

	"sitebuilder/internal/core/planner"
	"sitebuilder/internal/core/retry"
)

// Defaults applied by Config.withDefaults
const (
	DefaultWorkers   = 4
	DefaultRunBudget = 15 * time.Minute

	finalizeTimeout = 30 * time.Second
)

// Config controls run concurrency and batching
type Config struct {
	Workers   int
	RunBudget time.Duration
	Retry     retry.Policy

	ServiceBatch int
	AreaBatch    int

	// Owner prefixes the lease owner; defaults to host:pid
	Owner string
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.RunBudget <= 0 {
		c.RunBudget = DefaultRunBudget
	}
	if c.Retry.MaxRetries < 0 {
		c.Retry.MaxRetries = 0
	}
	if c.ServiceBatch <= 0 {
		c.ServiceBatch = planner.DefaultServiceBatch
	}
	if c.AreaBatch <= 0 {
		c.AreaBatch = planner.DefaultAreaBatch
	}
	if c.Owner == "" {
		host, _ := os.Hostname()
		c.Owner = fmt.Sprintf("%s:%d", host, os.Getpid())
	}
	return c
}
