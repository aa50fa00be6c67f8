package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localbiz_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "localbiz_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	referralsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "localbiz_referrals_total",
		Help: "Referral redemptions by outcome",
	}, []string{"result"})

	vouchersIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localbiz_vouchers_issued_total",
		Help: "Vouchers issued by referrals",
	})

	vouchersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "localbiz_vouchers_expired_total",
		Help: "Vouchers moved to expired by the scheduler",
	})

	hydrationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "localbiz_business_hydration_duration_seconds",
		Help:    "Time spent attaching payment options, hours and ratings to business rows",
		Buckets: prometheus.DefBuckets,
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveReferral counts a referral attempt by result label
// (claimed, invalid_code, self_referral, already_referred, error).
func ObserveReferral(result string) {
	referralsTotal.WithLabelValues(result).Inc()
}

func AddVouchersIssued(n int) {
	vouchersIssued.Add(float64(n))
}

func AddVouchersExpired(n int64) {
	if n > 0 {
		vouchersExpired.Add(float64(n))
	}
}

func ObserveHydration(duration time.Duration) {
	hydrationDuration.Observe(duration.Seconds())
}
