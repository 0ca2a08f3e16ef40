// Package hls writes a multi-variant HLS output tree (master playlist,
// per-variant media playlist, init segment, and media segments) for one
// stream session, enforcing atomic writes and a sliding live window.
package hls

import (
	"bytes"
	"dash2hlsd/internal/dash"
	"dash2hlsd/internal/errs"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mogiioin/hls-m3u8/m3u8"
)

const (
	videoPlaylistFile = "index.m3u8"
	audioPlaylistFile = "index.m3u8"
	initFile          = "init.mp4"
	masterFile        = "master.m3u8"
	audioSubdir       = "audio"
)

// RepInfo carries the representation metadata the master playlist and
// control-plane snapshots need, decoupled from the dash package's own
// manifest types so callers don't have to keep a live MPD reference
// around after selection.
type RepInfo struct {
	ID        string
	Bandwidth int
	Codecs    string
	Width     int
	Height    int
}

// Writer owns the output directory for one session and its up-to-two
// variant playlists (video, audio).
type Writer struct {
	outputDir string
	Video     *Variant
	Audio     *Variant
	master    *m3u8.MasterPlaylist
}

// NewWriter creates the session's output directory.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errs.Write("create_output_dir", err)
	}
	return &Writer{outputDir: outputDir, master: m3u8.NewMasterPlaylist()}, nil
}

// InitVariant creates the variant's subdirectory (none for video, "audio/"
// for audio) and its backing MediaPlaylist. windowSize > 0 selects sliding
// (live) playlist behavior, 0 unbounded (VOD); capacity bounds the backing
// ring buffer and must be known up front per the m3u8 package's
// fixed-capacity MediaPlaylist design — for VOD it should cover every
// segment the manifest will ever enumerate, for live windowSize plus a
// small slide margin.
func (w *Writer) InitVariant(kind dash.ContentKind, windowSize, capacity int) (*Variant, error) {
	dir := w.outputDir
	if kind == dash.KindAudio {
		dir = filepath.Join(w.outputDir, audioSubdir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Write("create_variant_dir", err)
		}
	}

	winsize := uint(windowSize)
	if capacity < 1 {
		capacity = 1
	}

	playlist, err := m3u8.NewMediaPlaylist(winsize, uint(capacity))
	if err != nil {
		return nil, errs.Write("new_playlist", err)
	}
	playlist.SetVersion(7)

	v := &Variant{
		kind:     kind,
		dir:      dir,
		playlist: playlist,
		live:     windowSize > 0,
	}
	switch kind {
	case dash.KindAudio:
		w.Audio = v
	default:
		w.Video = v
	}
	return v, nil
}

// WriteMaster emits the master playlist once, with one EXT-X-STREAM-INF
// for video and, when present, an EXT-X-MEDIA audio alternative wired via
// the STREAM-INF's AUDIO attribute.
func (w *Writer) WriteMaster(video, audio *RepInfo) error {
	if video == nil && audio == nil {
		return errs.Config("no_usable_representation", nil)
	}

	w.master.Variants = nil

	var params m3u8.VariantParams
	var uri string
	switch {
	case video != nil:
		params = m3u8.VariantParams{
			Bandwidth: uint32(video.Bandwidth),
			Codecs:    video.Codecs,
		}
		if video.Width > 0 && video.Height > 0 {
			params.Resolution = fmt.Sprintf("%dx%d", video.Width, video.Height)
		}
		uri = videoPlaylistFile
	default:
		params = m3u8.VariantParams{
			Bandwidth: uint32(audio.Bandwidth),
			Codecs:    audio.Codecs,
		}
		uri = audioSubdir + "/" + audioPlaylistFile
	}

	if audio != nil && video != nil {
		params.Audio = "aud"
		params.Alternatives = []*m3u8.Alternative{{
			Type:       "AUDIO",
			GroupId:    "aud",
			Name:       "audio",
			URI:        audioSubdir + "/" + audioPlaylistFile,
			Default:    true,
			Autoselect: true,
		}}
	}

	w.master.Append(uri, nil, params)

	return atomicWrite(filepath.Join(w.outputDir, masterFile), w.master.Encode().Bytes())
}

// Variant owns one media playlist (video or audio) and its segment files.
type Variant struct {
	kind         dash.ContentKind
	dir          string
	playlist     *m3u8.MediaPlaylist
	live         bool
	initWritten  bool
	initBytes    []byte
	timescale    uint64
	haveLast     bool
	lastNumber   uint64
	segmentNames []string // filenames currently inside the playlist window, oldest first
}

// WriteInit writes the variant's init segment, skipping the write (but
// not the in-memory bookkeeping) when the bytes are unchanged. It reports
// whether a previously written init segment's content or timescale
// changed. The session writes each variant's init segment once, during
// its starting phase, and does not use this result: a changed init
// segment in a refreshed manifest is not detected and does not produce a
// discontinuity marker.
func (v *Variant) WriteInit(data []byte, timescale uint64) (changed bool, err error) {
	if v.initWritten && bytes.Equal(v.initBytes, data) && v.timescale == timescale {
		return false, nil
	}
	if err := atomicWrite(filepath.Join(v.dir, initFile), data); err != nil {
		return false, errs.Write("write_init", err)
	}
	wasWritten := v.initWritten
	v.initWritten = true
	v.initBytes = data
	v.timescale = timescale
	v.playlist.SetDefaultMap(initFile, 0, 0)
	return wasWritten, nil
}

// AppendSegment writes the segment file atomically, slides the playlist
// window (live) or appends unbounded (VOD), and rewrites the playlist.
// Sliding past window_size deletes the evicted segment's file from disk,
// since m3u8.MediaPlaylist.Slide only drops it from the in-memory ring.
// A discontinuity marker is emitted when number leaves a gap after the
// previously appended segment, or when forceDiscontinuity is set (init
// bytes or timescale changed since the last segment).
func (v *Variant) AppendSegment(number uint64, durationSeconds float64, data []byte, forceDiscontinuity bool) error {
	if !v.initWritten {
		return errs.Write("segment_before_init", nil)
	}

	gap := v.haveLast && number != v.lastNumber+1
	if !v.haveLast {
		v.playlist.SeqNo = number
	}
	name := fmt.Sprintf("segment_%d.m4s", number)
	if err := atomicWrite(filepath.Join(v.dir, name), data); err != nil {
		return errs.Write("write_segment", err)
	}

	if v.live {
		if v.playlist.Count() >= v.playlist.WinSize() {
			evicted := v.segmentNames[0]
			v.segmentNames = v.segmentNames[1:]
			if err := os.Remove(filepath.Join(v.dir, evicted)); err != nil && !os.IsNotExist(err) {
				return errs.Write("remove_evicted_segment", err)
			}
		}
		v.segmentNames = append(v.segmentNames, name)
		v.playlist.Slide(name, durationSeconds, "")
	} else if err := v.playlist.Append(name, durationSeconds, ""); err != nil {
		return errs.Write("append_segment", err)
	}

	if gap || forceDiscontinuity {
		_ = v.playlist.SetDiscontinuity()
	}

	v.haveLast = true
	v.lastNumber = number

	return v.writePlaylist()
}

// MediaSequence returns the playlist's current EXT-X-MEDIA-SEQUENCE. It
// starts at the first appended segment's number and advances by one per
// evicted segment, so it equals the number of the segment at the front of
// the window as long as appended numbers are contiguous.
func (v *Variant) MediaSequence() uint64 {
	return v.playlist.SeqNo
}

// Finalize emits #EXT-X-ENDLIST (VOD completion or session stop) and
// rewrites the playlist one last time.
func (v *Variant) Finalize() error {
	v.playlist.Close()
	return v.writePlaylist()
}

func (v *Variant) writePlaylist() error {
	return atomicWrite(filepath.Join(v.dir, playlistFilename(v.kind)), v.playlist.Encode().Bytes())
}

func playlistFilename(kind dash.ContentKind) string {
	if kind == dash.KindAudio {
		return audioPlaylistFile
	}
	return videoPlaylistFile
}

// atomicWrite writes data to a temp file in the same directory as path
// and renames it into place, so readers never observe a partial file.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
