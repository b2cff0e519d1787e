package config

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	otpIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "Total number of OTP codes issued",
		},
	)

	otpVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_verified_total",
			Help: "Total number of OTP verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	certificatesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certificates_generated_total",
			Help: "Total number of certificate generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	smsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_sent_total",
			Help: "Total number of SMS messages sent by outcome",
		},
		[]string{"outcome"},
	)
)

// Metrics records request counts and latency per route and logs requests
// that cross the slow threshold.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(latency.Seconds())

		if latency > 200*time.Millisecond {
			log.Printf("[perf] SLOW REQUEST: %s %s took %v", c.Request.Method, path, latency)
		}
	}
}

func RecordOTPIssued()                 { otpIssued.Inc() }
func RecordOTPVerified(outcome string) { otpVerified.WithLabelValues(outcome).Inc() }

// RecordCertificate makes certificate generation outcomes observable since
// failures are swallowed on the auto-generation path.
func RecordCertificate(outcome string) { certificatesGenerated.WithLabelValues(outcome).Inc() }

func RecordSMS(outcome string) { smsSent.WithLabelValues(outcome).Inc() }
