package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"wallet/internal/log"
)

func TestRequestIDAssignedAndPropagated(t *testing.T) {
	m := NewMiddleware(log.Discard(), func(r *http.Request) string { return "1.2.3.4" })

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid request id, got %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header does not match context id")
	}
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
	if st := m.Stats(); st.TotalRequests != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestIncomingRequestIDReused(t *testing.T) {
	m := NewMiddleware(log.Discard(), nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("expected incoming id reused, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "bad id with spaces")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got == "bad id with spaces" {
		t.Fatalf("invalid incoming id should be replaced")
	}
}

func TestStatsEmpty(t *testing.T) {
	if st := NewMiddleware(log.Discard(), nil).Stats(); st.TotalRequests != 0 || st.AverageResponseTime != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}
