package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores pipeline counters
type Metrics struct {
	RequestsTotal       uint64
	RequestsInProgress  uint64
	ScansTotal          uint64
	ScansDegraded       uint64
	MessagesIntercepted uint64
	StartTime           time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

// IncrementScans increments total scans counter
func IncrementScans() {
	atomic.AddUint64(&globalMetrics.ScansTotal, 1)
}

// IncrementScansDegraded counts scans served by the local fallback
func IncrementScansDegraded() {
	atomic.AddUint64(&globalMetrics.ScansDegraded, 1)
}

// IncrementIntercepted counts inbound messages handled unattended
func IncrementIntercepted() {
	atomic.AddUint64(&globalMetrics.MessagesIntercepted, 1)
}

// MetricsMiddleware tracks request counters around each handler.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()
		next.ServeHTTP(w, r)
	})
}

// MetricsHandler serves the counters as JSON.
func MetricsHandler(extra func() map[string]uint64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		out := map[string]any{
			"uptime_seconds":       uint64(time.Since(globalMetrics.StartTime).Seconds()),
			"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
			"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
			"scans_total":          atomic.LoadUint64(&globalMetrics.ScansTotal),
			"scans_degraded":       atomic.LoadUint64(&globalMetrics.ScansDegraded),
			"messages_intercepted": atomic.LoadUint64(&globalMetrics.MessagesIntercepted),
			"goroutines":           runtime.NumGoroutine(),
			"heap_alloc_bytes":     mem.HeapAlloc,
		}
		if extra != nil {
			for k, v := range extra() {
				out[k] = v
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
