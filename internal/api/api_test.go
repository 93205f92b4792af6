package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dose-go/internal/dose"
	"dose-go/internal/testutil"
)

type stubNotifications struct {
	mu        sync.Mutex
	perm      dose.Permission
	onRequest dose.Permission
}

func (s *stubNotifications) Permission() dose.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perm
}

func (s *stubNotifications) RequestPermission(context.Context) dose.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perm = s.onRequest
	return s.perm
}

type cannedAdvisor struct{}

func (cannedAdvisor) Ask(_ context.Context, _, name, question string) string {
	return name + ": " + question
}

type fixture struct {
	server        *httptest.Server
	svc           *dose.ReminderService
	notifications *stubNotifications
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := dose.NewNopLogger()
	clock := testutil.FixedClock()
	notifier := testutil.NewRecordingNotifier(dose.PermissionGranted)
	records := dose.NewRecords(testutil.NewTestStore(), logger)
	scheduler := dose.NewScheduler(records, notifier, clock, logger, dose.SchedulerConfig{})
	svc := dose.NewReminderService(records, scheduler, cannedAdvisor{}, clock, testutil.NewStubIDGenerator(), logger)
	notifications := &stubNotifications{perm: dose.PermissionDefault, onRequest: dose.PermissionGranted}

	srv := httptest.NewServer(NewRouter(NewHandler(svc, notifications, scheduler, logger)))
	t.Cleanup(srv.Close)
	return &fixture{server: srv, svc: svc, notifications: notifications}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestMedicationsAPI(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/medications", `{"name":"Ibuprofen","dosage":"200mg","time":"09:00"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "id-1", body["id"])
	assert.Equal(t, "09:00", body["time"])
	assert.Equal(t, false, body["taken"])

	resp, body = f.do(t, http.MethodPost, "/api/medications/id-1/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["taken"])

	resp, body = f.do(t, http.MethodGet, "/api/medications", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, body = f.do(t, http.MethodPost, "/api/medications/id-1/ask", `{"question":"with food?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ibuprofen: with food?", body["answer"])

	resp, _ = f.do(t, http.MethodDelete, "/api/medications/id-1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = f.do(t, http.MethodDelete, "/api/medications/id-1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, 404, body["code"])
}

func TestMedicationsAPI_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing name", body: `{"time":"09:00"}`},
		{name: "bad time", body: `{"name":"A","time":"9am"}`},
		{name: "malformed json", body: `{"name":`},
		{name: "unknown field", body: `{"name":"A","time":"09:00","colour":"red"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/api/medications", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Bad Request", body["error"])
		})
	}
	assert.Empty(t, f.svc.Medications())
}

func TestAppointmentsAPI(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/appointments", `{"date":"2024-01-20","time":"14:00","specialty":"Cardiology","location":"Room 4"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "2024-01-20", body["date"])
	assert.Equal(t, false, body["notified"])

	resp, _ = f.do(t, http.MethodPost, "/api/appointments", `{"date":"2020-01-01","time":"14:00","specialty":"Cardiology"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/api/appointments", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])

	resp, _ = f.do(t, http.MethodDelete, "/api/appointments/id-1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestJournalAPI(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/journal", `{"content":"tired today"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/journal", `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := f.do(t, http.MethodGet, "/api/journal", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "tired today", entries[0].(map[string]any)["content"])
}

func TestEmptyListsAreArrays(t *testing.T) {
	f := newFixture(t)
	for path, key := range map[string]string{
		"/api/medications":  "medications",
		"/api/appointments": "appointments",
		"/api/journal":      "entries",
		"/api/files":        "files",
	} {
		_, body := f.do(t, http.MethodGet, path, "")
		assert.Equal(t, []any{}, body[key], path)
	}
}

func TestFilesAPI(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "prescription.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 test"))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="xray.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err = mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte{0xff, 0xd8, 0xff})
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/files", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	files := f.svc.ArchivedFiles()
	require.Len(t, files, 2)
	assert.Equal(t, "prescription.pdf", files[0].Name)
	assert.Equal(t, "application/pdf", files[0].Type)
	assert.Equal(t, "image/jpeg", files[1].Type)
	assert.True(t, strings.HasPrefix(files[1].Data, "data:image/jpeg;base64,"))

	delResp, _ := f.do(t, http.MethodDelete, "/api/files/"+files[0].ID, "")
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	assert.Len(t, f.svc.ArchivedFiles(), 1)
}

func TestFilesAPI_RequiresMultipart(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodPost, "/api/files", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPermissionAPI(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodGet, "/api/notifications/permission", "")
	assert.Equal(t, "default", body["permission"])

	resp, body := f.do(t, http.MethodPost, "/api/notifications/permission", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "granted", body["permission"])
	assert.Equal(t, dose.PermissionGranted, f.notifications.Permission())
}

func TestHealthAPI(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "idle", body["medication_loop"])
	assert.Equal(t, "default", body["permission"])
}
