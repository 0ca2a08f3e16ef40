package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dash2hlsd/internal/errs"
	"dash2hlsd/internal/logger"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Warnw(string, ...interface{})  {}

var _ logger.Logger = nopLogger{}

func newFetcher() *Fetcher {
	f := NewFetcher(nopLogger{})
	f.baseDelay = time.Millisecond
	return f
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("segment-bytes"))
	}))
	defer srv.Close()

	f := newFetcher()
	data, err := f.Fetch(context.Background(), srv.URL, nil, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "segment-bytes", string(data))
}

func TestFetch404IsNotFoundWithoutRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newFetcher()
	_, err := f.Fetch(context.Background(), srv.URL, nil, time.Second)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestFetchRetriesServerErrorsThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newFetcher()
	data, err := f.Fetch(context.Background(), srv.URL, nil, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestFetchNon404ClientErrorIsFatal(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newFetcher()
	_, err := f.Fetch(context.Background(), srv.URL, nil, time.Second)
	assert.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestFetchHeadersArePropagated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Auth"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newFetcher()
	_, err := f.Fetch(context.Background(), srv.URL, map[string]string{"X-Auth": "secret"}, time.Second)
	assert.NoError(t, err)
}
