package recovery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"dose-go/internal/testutil"
)

func TestMiddleware_Panic(t *testing.T) {
	logger := testutil.NewRecordingLogger()
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/medications", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("empty response body")
	}
	if n := logger.Count("ERROR", "panic recovered"); n != 1 {
		t.Errorf("panic logs = %d, want 1", n)
	}
}

func TestMiddleware_PassThrough(t *testing.T) {
	h := Middleware(testutil.NewRecordingLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rr.Code)
	}
}
