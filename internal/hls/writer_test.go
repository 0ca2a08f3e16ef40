package hls

import (
	"os"
	"path/filepath"
	"testing"

	"dash2hlsd/internal/dash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterVODLifecycle(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	v, err := w.InitVariant(dash.KindVideo, 0, 3)
	require.NoError(t, err)

	changed, err := v.WriteInit([]byte("initbytes"), 1000)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.FileExists(t, filepath.Join(dir, initFile))

	for n := uint64(1); n <= 3; n++ {
		require.NoError(t, v.AppendSegment(n, 2, []byte("seg"), false))
	}
	require.NoError(t, v.Finalize())

	playlist, err := os.ReadFile(filepath.Join(dir, videoPlaylistFile))
	require.NoError(t, err)
	assert.Contains(t, string(playlist), "#EXT-X-ENDLIST")
	assert.Contains(t, string(playlist), "segment_1.m4s")
	assert.Contains(t, string(playlist), "segment_3.m4s")
}

func TestWriterDiscontinuityOnGap(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	v, err := w.InitVariant(dash.KindVideo, 0, 2)
	require.NoError(t, err)
	_, err = v.WriteInit([]byte("init"), 1000)
	require.NoError(t, err)

	require.NoError(t, v.AppendSegment(1, 2, []byte("seg"), false))
	require.NoError(t, v.AppendSegment(3, 2, []byte("seg"), false))

	playlist, err := os.ReadFile(filepath.Join(dir, videoPlaylistFile))
	require.NoError(t, err)
	assert.Contains(t, string(playlist), "#EXT-X-DISCONTINUITY")
}

func TestWriterLiveWindowDeletesEvictedSegmentFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	v, err := w.InitVariant(dash.KindVideo, 2, 6)
	require.NoError(t, err)
	_, err = v.WriteInit([]byte("init"), 1000)
	require.NoError(t, err)

	for n := uint64(1); n <= 4; n++ {
		require.NoError(t, v.AppendSegment(n, 2, []byte("seg"), false))
	}

	assert.NoFileExists(t, filepath.Join(dir, "segment_1.m4s"))
	assert.NoFileExists(t, filepath.Join(dir, "segment_2.m4s"))
	assert.FileExists(t, filepath.Join(dir, "segment_3.m4s"))
	assert.FileExists(t, filepath.Join(dir, "segment_4.m4s"))

	playlist, err := os.ReadFile(filepath.Join(dir, videoPlaylistFile))
	require.NoError(t, err)
	out := string(playlist)
	assert.NotContains(t, out, "segment_1.m4s")
	assert.Contains(t, out, "segment_4.m4s")
}

func TestWriterSegmentBeforeInitFails(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	v, err := w.InitVariant(dash.KindVideo, 0, 1)
	require.NoError(t, err)
	err = v.AppendSegment(1, 2, []byte("seg"), false)
	assert.Error(t, err)
}

func TestWriteMasterWithAudioAlternative(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	err = w.WriteMaster(
		&RepInfo{ID: "v1", Bandwidth: 3000000, Codecs: "avc1.640028", Width: 1920, Height: 1080},
		&RepInfo{ID: "a1", Bandwidth: 128000, Codecs: "mp4a.40.2"},
	)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, masterFile))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "EXT-X-STREAM-INF")
	assert.Contains(t, out, "RESOLUTION=1920x1080")
	assert.Contains(t, out, "TYPE=AUDIO")
}

func TestWriteMasterRequiresAtLeastOneVariant(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	assert.Error(t, w.WriteMaster(nil, nil))
}

func TestInitVariantAudioUsesSubdir(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	_, err = w.InitVariant(dash.KindAudio, 4, 8)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, audioSubdir))
}
