package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T, handler http.Handler) *SupabaseStorage {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return NewSupabaseStorage("proj", "service-key", "report-images",
		WithBaseURL(ts.URL),
		WithRetry(2, time.Millisecond),
	)
}

func TestUploadFileReturnsPublicURL(t *testing.T) {
	s := testStorage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/report-images/observations/123_abc.jpg", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))

	url, err := s.UploadFile(context.Background(), "observations/123_abc.jpg", []byte{1, 2, 3}, "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, url, "/storage/v1/object/public/report-images/observations/123_abc.jpg")
}

func TestUploadFileRetriesServerErrors(t *testing.T) {
	var calls int32

	s := testStorage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	_, err := s.UploadFile(context.Background(), "observations/x.jpg", []byte{1}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestUploadFileDoesNotRetryClientErrors(t *testing.T) {
	var calls int32

	s := testStorage(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid key"}`)
	}))

	_, err := s.UploadFile(context.Background(), "observations/x.jpg", []byte{1}, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestObjectPathPattern(t *testing.T) {
	pattern := regexp.MustCompile(`^observations/\d+_[0-9a-zA-Z]{8}\.jpg$`)

	assert.Regexp(t, pattern, ObjectPath("observations", "site photo.jpg"))
	assert.Regexp(t, pattern, ObjectPath("observations", "noextension"))

	png := ObjectPath("incidents", "shot.PNG")
	assert.Regexp(t, regexp.MustCompile(`^incidents/\d+_[0-9a-zA-Z]{8}\.PNG$`), png)
}
