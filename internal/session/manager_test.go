package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dash2hlsd/internal/config"
	"dash2hlsd/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVODManifest = `<?xml version="1.0"?>
<MPD type="static" mediaPresentationDuration="PT4S">
  <Period>
    <AdaptationSet contentType="video" mimeType="video/mp4" codecs="avc1.64001f">
      <Representation id="v1" bandwidth="500000" width="640" height="360">
        <SegmentTemplate timescale="1" duration="2" initialization="v1/init.mp4" media="v1/$Number$.m4s" startNumber="1"/>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

func vodTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stream.mpd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testVODManifest))
	})
	mux.HandleFunc("/v1/init.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("initseg"))
	})
	mux.HandleFunc("/v1/1.m4s", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("seg1"))
	})
	mux.HandleFunc("/v1/2.m4s", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("seg2"))
	})
	return httptest.NewServer(mux)
}

func TestManagerCreateRunsVODToCompletion(t *testing.T) {
	srv := vodTestServer(t)
	defer srv.Close()

	mgr := NewManager(logger.NewLogger("error"), t.TempDir())
	id, err := mgr.Create(config.StreamConfig{MPDURL: srv.URL + "/stream.mpd"})
	require.NoError(t, err)

	snap, err := mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, snap.Status)
	require.NotNil(t, snap.Video)
	assert.Equal(t, "v1", snap.Video.RepresentationID)

	require.Eventually(t, func() bool {
		snap, err := mgr.Get(id)
		return err == nil && snap.Status == StatusStopped
	}, 10*time.Second, 50*time.Millisecond)

	list := mgr.List()
	assert.Len(t, list, 1)

	require.NoError(t, mgr.Remove(id))
	_, err = mgr.Get(id)
	assert.Error(t, err)
}

func TestManagerSessionGoesFatalAfterRepeatedSegmentFailures(t *testing.T) {
	original := maxConsecutiveFailures
	maxConsecutiveFailures = 2
	t.Cleanup(func() { maxConsecutiveFailures = original })

	mux := http.NewServeMux()
	mux.HandleFunc("/stream.mpd", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testVODManifest))
	})
	mux.HandleFunc("/v1/init.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("initseg"))
	})
	mux.HandleFunc("/v1/1.m4s", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/v1/2.m4s", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mgr := NewManager(logger.NewLogger("error"), t.TempDir())
	id, err := mgr.Create(config.StreamConfig{MPDURL: srv.URL + "/stream.mpd"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := mgr.Get(id)
		return err == nil && snap.Status == StatusError
	}, 40*time.Second, 50*time.Millisecond)

	snap, err := mgr.Get(id)
	require.NoError(t, err)
	assert.Contains(t, snap.ErrorMessage, "NetworkError")
}

func TestManagerCreateRejectsBadConfig(t *testing.T) {
	mgr := NewManager(logger.NewLogger("error"), t.TempDir())
	_, err := mgr.Create(config.StreamConfig{})
	assert.Error(t, err)
}

func TestManagerGetUnknownID(t *testing.T) {
	mgr := NewManager(logger.NewLogger("error"), t.TempDir())
	_, err := mgr.Get("nope")
	assert.Error(t, err)
}

func TestManagerRemoveUnknownID(t *testing.T) {
	mgr := NewManager(logger.NewLogger("error"), t.TempDir())
	assert.Error(t, mgr.Remove("nope"))
}
