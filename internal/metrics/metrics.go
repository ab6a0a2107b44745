// Package metrics collects Prometheus metrics for the HTTP surface and the
// domain services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services report to. Nop satisfies it for tests and tools.
type Recorder interface {
	PostCreated()
	LikeToggled(liked bool)
	CommentAdded()
	NotificationPushed(kind string)
	VerificationApproved()
	MessageSent()
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	posts         prometheus.Counter
	likes         *prometheus.CounterVec
	comments      prometheus.Counter
	notifications *prometheus.CounterVec
	approvals     prometheus.Counter
	messages      prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "college_connect_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "college_connect_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		posts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "college_connect_posts_created_total",
			Help: "Posts created.",
		}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "college_connect_like_toggles_total",
			Help: "Like toggles by resulting state.",
		}, []string{"state"}),
		comments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "college_connect_comments_created_total",
			Help: "Comments created.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "college_connect_notifications_pushed_total",
			Help: "Notifications pushed by type.",
		}, []string{"type"}),
		approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "college_connect_verifications_approved_total",
			Help: "Student verifications approved.",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "college_connect_messages_sent_total",
			Help: "Direct messages sent.",
		}),
	}
	reg.MustRegister(c.httpRequests, c.httpLatency, c.posts, c.likes, c.comments,
		c.notifications, c.approvals, c.messages)
	return c
}

func (c *Collector) ObserveHTTP(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) PostCreated() { c.posts.Inc() }
func (c *Collector) CommentAdded() { c.comments.Inc() }
func (c *Collector) MessageSent() { c.messages.Inc() }

func (c *Collector) LikeToggled(liked bool) {
	state := "unliked"
	if liked {
		state = "liked"
	}
	c.likes.WithLabelValues(state).Inc()
}

func (c *Collector) NotificationPushed(kind string) { c.notifications.WithLabelValues(kind).Inc() }

func (c *Collector) VerificationApproved() { c.approvals.Inc() }

// Handler exposes the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type nop struct{}

// Nop discards everything.
var Nop Recorder = nop{}

func (nop) PostCreated() {}
func (nop) LikeToggled(bool) {}
func (nop) CommentAdded() {}
func (nop) NotificationPushed(string) {}
func (nop) VerificationApproved() {}
func (nop) MessageSent() {}
