package module

import (
	"time"

	"sitebuilder/internal/core/planner"
	"sitebuilder/internal/core/retry"
	"sitebuilder/internal/platform/config"
	"sitebuilder/internal/services/build/service"
)

// Options controls the build worker and its upstream clients
type Options struct {
	Workers      int
	RunBudget    time.Duration
	RetryMax     int
	RetryDelay   time.Duration
	ServiceBatch int
	AreaBatch    int
	Owner        string

	LLMAPIKey    string
	LLMBaseURL   string
	LLMModel     string
	LLMTimeout   time.Duration
	LLMMaxTokens int

	ReviewsToken    string
	ReviewsBaseURL  string
	ReviewsTimeout  time.Duration
	ReviewsPageSize int
	ReviewsMaxPages int
}

// FromConfig reads CORE_BUILD_*, LLM_* and REVIEWS_*
func FromConfig(cfg config.Conf) Options {
	b := cfg.Prefix("CORE_BUILD_")
	l := cfg.Prefix("LLM_")
	r := cfg.Prefix("REVIEWS_")
	return Options{
		Workers:      b.MayInt("WORKERS", service.DefaultWorkers),
		RunBudget:    b.MayDuration("RUN_BUDGET", service.DefaultRunBudget),
		RetryMax:     b.MayInt("RETRY_MAX", retry.DefaultMaxRetries),
		RetryDelay:   b.MayDuration("RETRY_DELAY", retry.DefaultDelay),
		ServiceBatch: b.MayInt("SERVICE_BATCH", planner.DefaultServiceBatch),
		AreaBatch:    b.MayInt("AREA_BATCH", planner.DefaultAreaBatch),
		Owner:        b.MayString("OWNER", ""),

		LLMAPIKey:    l.MayString("API_KEY", ""),
		LLMBaseURL:   l.MayURL("BASE_URL", ""),
		LLMModel:     l.MayString("MODEL", ""),
		LLMTimeout:   l.MayDuration("TIMEOUT", 90*time.Second),
		LLMMaxTokens: l.MayInt("MAX_TOKENS", 4096),

		ReviewsToken:    r.MayString("TOKEN", ""),
		ReviewsBaseURL:  r.MayURL("BASE_URL", ""),
		ReviewsTimeout:  r.MayDuration("TIMEOUT", 15*time.Second),
		ReviewsPageSize: r.MayInt("PAGE_SIZE", 50),
		ReviewsMaxPages: r.MayInt("MAX_PAGES", 4),
	}
}

func (o Options) serviceConfig() service.Config {
	return service.Config{
		Workers:      o.Workers,
		RunBudget:    o.RunBudget,
		Retry:        retry.Policy{MaxRetries: o.RetryMax, Delay: o.RetryDelay},
		ServiceBatch: o.ServiceBatch,
		AreaBatch:    o.AreaBatch,
		Owner:        o.Owner,
	}
}
