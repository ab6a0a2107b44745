package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.PostCreated()
	c.LikeToggled(true)
	c.LikeToggled(false)
	c.LikeToggled(true)
	c.NotificationPushed("like")
	c.ObserveHTTP("/posts", http.MethodGet, 200, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.posts))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.likes.WithLabelValues("liked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.likes.WithLabelValues("unliked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/posts", "GET", "200")))
}

func TestHandler_Exposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.MessageSent()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "college_connect_messages_sent_total 1"))
}
