package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hseguardian/internal/airtable"
	"hseguardian/internal/image"
	"hseguardian/internal/queue"
	"hseguardian/internal/storage"
	"hseguardian/internal/syncer"
	"hseguardian/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// airtableStub switches between failing and succeeding so tests can drive a
// report into the queue and then flush it.
type airtableStub struct {
	status int32
	calls  int32
}

func (a *airtableStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&a.calls, 1)
		status := int(atomic.LoadInt32(&a.status))
		if status >= 400 {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"type":"SERVICE_UNAVAILABLE","message":"service unavailable"}}`)
			return
		}
		fmt.Fprint(w, `{"records":[{"id":"rec1"}]}`)
	})
}

type testEnv struct {
	service  *Service
	server   *httptest.Server
	queue    *queue.Store
	airtable *airtableStub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stub := &airtableStub{status: 200}
	airtableServer := httptest.NewServer(stub.handler())
	t.Cleanup(airtableServer.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	q, err := queue.Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	records := airtable.New("appTEST", "key",
		airtable.WithBaseURL(airtableServer.URL),
		airtable.WithRetryPolicy(airtable.RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond}),
		airtable.WithLogger(logger),
	)
	uploads := storage.NewSupabaseStorage("proj", "key", "report-images",
		storage.WithBaseURL(airtableServer.URL),
		storage.WithRetry(1, time.Millisecond),
	)

	orchestrator := syncer.New(q, records, uploads, image.NewCompressor(1280, 75),
		"Observations", "Incidents", logger)

	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("k"), 32))
	config := &types.Config{
		ServerPort:        0,
		ReadTimeoutSec:    5,
		WriteTimeoutSec:   5,
		SessionPassphrase: "stay-safe",
		SessionMaxAgeSec:  3600,
		CookieHashKey:     key,
		CookieBlockKey:    key,
	}

	svc, err := New(config, logger, orchestrator, q, nil, nil, nil, nil, "")
	require.NoError(t, err)

	ts := httptest.NewServer(svc.server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{service: svc, server: ts, queue: q, airtable: stub}
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	resp, err := http.PostForm(e.server.URL+"/api/login", url.Values{
		"name":       {"ava"},
		"passphrase": {"stay-safe"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "hse_session" {
			return cookie
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (e *testEnv) do(t *testing.T, cookie *http.Cookie, method, path string, form url.Values) *http.Response {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestLoginRejectsWrongPassphrase(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.PostForm(env.server.URL+"/api/login", url.Values{
		"passphrase": {"wrong"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, nil, http.MethodPost, "/api/observations", url.Values{})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitObservationDirect(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	resp := env.do(t, cookie, http.MethodPost, "/api/observations", url.Values{
		"reporter_name":    {"Ava Williams"},
		"site":             {"North Yard"},
		"observation_type": {"Unsafe Condition"},
		"description":      {"Loose scaffold board"},
		"observed_at":      {"2026-08-20T09:30"},
	})

	var out submitResponse
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeJSON(t, resp, &out)
	assert.False(t, out.Queued)

	n, err := env.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	resp := env.do(t, cookie, http.MethodPost, "/api/observations", url.Values{
		"site": {"North Yard"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, cookie, http.MethodPost, "/api/incidents", url.Values{
		"reporter_name": {"Mia"},
		"site":          {"Dockside"},
		"description":   {"Slip"},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing severity")
}

func TestTransientFailureQueuesReport(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	atomic.StoreInt32(&env.airtable.status, http.StatusServiceUnavailable)

	resp := env.do(t, cookie, http.MethodPost, "/api/incidents", url.Values{
		"reporter_name": {"Mia Davis"},
		"site":          {"Dockside"},
		"severity":      {"High"},
		"description":   {"Slip on wet deck"},
	})

	var out submitResponse
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	decodeJSON(t, resp, &out)
	assert.True(t, out.Queued)
	assert.NotEmpty(t, out.QueueID)

	n, err := env.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Connectivity restored: a manual sync pass flushes the queue.
	atomic.StoreInt32(&env.airtable.status, http.StatusOK)

	resp = env.do(t, cookie, http.MethodPost, "/api/sync", nil)
	var synced map[string]int
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &synced)
	assert.Equal(t, 1, synced["synced"])

	n, err = env.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSchemaMismatchSurfacesFieldName(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	stubServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":{"type":"UNKNOWN_FIELD_NAME","message":"Unknown field name: \"Foo\""}}`)
	}))
	defer stubServer.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	env.service.orchestrator = syncer.New(env.queue,
		airtable.New("appTEST", "key",
			airtable.WithBaseURL(stubServer.URL),
			airtable.WithRetryPolicy(airtable.RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond}),
			airtable.WithLogger(logger),
		),
		storage.NewSupabaseStorage("proj", "key", "report-images"),
		image.NewCompressor(1280, 75),
		"Observations", "Incidents", logger)

	resp := env.do(t, cookie, http.MethodPost, "/api/observations", url.Values{
		"reporter_name": {"Ava"},
		"site":          {"North Yard"},
		"description":   {"Blocked exit"},
	})

	var out errorResponse
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	decodeJSON(t, resp, &out)
	assert.Contains(t, out.Error, "'Foo'")

	n, err := env.queue.Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "schema errors are permanent and must not queue")
}

func TestQueueStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	_, err := env.queue.Enqueue(context.Background(), types.ReportKindObservation,
		types.ObservationForm{Site: "North Yard"}, []types.QueuedImage{{Filename: "a.jpg", Data: []byte{1}}})
	require.NoError(t, err)

	resp := env.do(t, cookie, http.MethodGet, "/api/queue", nil)

	var out struct {
		Pending int `json:"pending"`
		Items   []struct {
			ID     string `json:"id"`
			Kind   string `json:"kind"`
			Images int    `json:"images"`
		} `json:"items"`
	}
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &out)

	assert.Equal(t, 1, out.Pending)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "observation", out.Items[0].Kind)
	assert.Equal(t, 1, out.Items[0].Images)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
