package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// PostEvents counts lifecycle events by type (created, ttl_refreshed,
	// reaction_updated).
	PostEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_post_events_total",
		Help: "Total number of post lifecycle events by type",
	}, []string{"event"})

	// ExpiredReads counts requests that targeted a post already past its
	// expiration instant.
	ExpiredReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ember_expired_post_reads_total",
		Help: "Total number of reads that hit an expired post",
	})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus HTTP middleware for the given service
// name. The underlying collectors register exactly once per process; repeated
// calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware returns the Fiber handler that records per-request metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
