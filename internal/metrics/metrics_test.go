package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ItemsReported.WithLabelValues("lost").Inc()
	m.ItemsReported.WithLabelValues("lost").Inc()
	m.ObserveNotification("claim_submitted", nil)
	m.ObserveNotification("claim_submitted", errors.New("boom"))

	if got := testutil.ToFloat64(m.ItemsReported.WithLabelValues("lost")); got != 2 {
		t.Errorf("expected 2 lost reports, got %v", got)
	}
	if got := testutil.ToFloat64(m.Notifications.WithLabelValues("claim_submitted", "error")); got != 1 {
		t.Errorf("expected 1 failed notification, got %v", got)
	}
}

func TestSetItemCounts(t *testing.T) {
	m := New()
	m.SetItemCounts(map[string]int{"pending": 3, "claimed": 1})
	m.SetItemCounts(map[string]int{"pending": 2})

	if got := testutil.ToFloat64(m.ItemsByStatus.WithLabelValues("pending")); got != 2 {
		t.Errorf("expected 2 pending, got %v", got)
	}
	if n := testutil.CollectAndCount(m.ItemsByStatus); n != 1 {
		t.Errorf("expected stale series to be dropped, got %d series", n)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "lostfound_http_request_duration_seconds") {
		t.Error("expected request histogram in output")
	}
}
