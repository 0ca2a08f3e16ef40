// Package session implements the per-stream pipeline: refresh the DASH
// manifest, enumerate new segments, fetch/decrypt/write them as an HLS
// variant pair, and surface lifecycle state to the control plane.
package session

import (
	"context"
	"dash2hlsd/internal/config"
	"dash2hlsd/internal/dash"
	"dash2hlsd/internal/decrypt"
	"dash2hlsd/internal/download"
	"dash2hlsd/internal/errs"
	"dash2hlsd/internal/hls"
	"dash2hlsd/internal/logger"
	"sync"
	"time"
)

// Status is a session's lifecycle state.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// maxConsecutiveFailures is a var, not a const, so tests can shrink it to
// exercise the repeated-failure path without waiting through ten real
// poll cycles.
var maxConsecutiveFailures = 10

// minimumRefreshInterval is the floor on the run loop's cadence, applied
// even when poll_interval is set lower.
const minimumRefreshInterval = 2 * time.Second

const httpTimeout = 15 * time.Second

// VariantSnapshot is the selected-representation info the control plane
// exposes for one variant.
type VariantSnapshot struct {
	RepresentationID string
	Bandwidth        int
	Codecs           string
	Width            int
	Height           int
}

// Snapshot is the session info returned by the manager's get/list
// operations: a consistent point-in-time copy, never a live reference.
type Snapshot struct {
	ID           string
	Status       Status
	Label        string
	ErrorMessage string
	Video        *VariantSnapshot
	Audio        *VariantSnapshot
}

// Session owns one DASH-to-HLS conversion.
type Session struct {
	id     string
	cfg    *config.Normalized
	logger logger.Logger

	dashClient *dash.Client
	fetcher    *download.Fetcher
	decryptor  *decrypt.Decryptor
	writer     *hls.Writer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu              sync.RWMutex
	status          Status
	errorMessage    string
	mpd             *dash.MPD
	requestURL      string
	refreshFailures int

	video *variantRuntime
	audio *variantRuntime
}

// variantRuntime is the live pipeline state for one selected variant.
// It is touched only from the session's own run loop (or the starting
// phase before the loop exists), so it needs no lock of its own —
// Session.mu protects only what Snapshot exposes.
type variantRuntime struct {
	kind       dash.ContentKind
	sel        *dash.Selected
	vw         *hls.Variant
	processed  *fifoSet
	lastNumber uint64
	haveLast   bool
	timescale  uint64
	failures   map[uint64]int
	lastErr    error // most recent failure cause, reported if a segment's retries are exhausted
}

// Deps bundles a Session's external collaborators, shared across all
// sessions owned by one manager.
type Deps struct {
	Logger     logger.Logger
	DashClient *dash.Client
	Fetcher    *download.Fetcher
}

// New constructs a Session in the starting state. Call Start to run its
// starting phase and, on success, launch its background loop.
func New(id string, cfg *config.Normalized, deps Deps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:         id,
		cfg:        cfg,
		logger:     deps.Logger,
		dashClient: deps.DashClient,
		fetcher:    deps.Fetcher,
		decryptor:  decrypt.New(cfg.MP4DecryptPath, deps.Logger),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     StatusStarting,
	}
}

// Start runs the starting phase synchronously (so a caller gets an
// immediate error for a bad MPD URL or unusable manifest) and, on
// success, launches the run loop in a new goroutine.
func (s *Session) Start() error {
	if err := s.runStartingPhase(); err != nil {
		s.mu.Lock()
		s.status = StatusError
		s.errorMessage = err.Error()
		s.mu.Unlock()
		close(s.done)
		return err
	}

	s.mu.Lock()
	s.status = StatusRunning
	s.mu.Unlock()

	go s.runLoop()
	return nil
}

// Stop signals cancellation and waits for the run loop to exit. The
// writer is finalized only if the loop itself reaches VOD completion;
// a cancelled live session is left without ENDLIST, by design.
func (s *Session) Stop() {
	s.cancel()
	<-s.done
}

// Snapshot returns a consistent, lock-protected copy of the session's
// externally visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:           s.id,
		Status:       s.status,
		Label:        s.cfg.Label,
		ErrorMessage: s.errorMessage,
	}
	if s.video != nil {
		snap.Video = variantSnapshot(s.video.sel)
	}
	if s.audio != nil {
		snap.Audio = variantSnapshot(s.audio.sel)
	}
	return snap
}

func variantSnapshot(sel *dash.Selected) *VariantSnapshot {
	if sel == nil {
		return nil
	}
	rep := sel.Representation
	return &VariantSnapshot{
		RepresentationID: rep.ID,
		Bandwidth:        rep.Bandwidth,
		Codecs:           rep.Codecs,
		Width:            rep.Width,
		Height:           rep.Height,
	}
}

func (s *Session) runStartingPhase() error {
	mpd, requestURL, err := s.dashClient.FetchAndParseMPD(s.ctx, s.cfg.MPDURL, s.cfg.Headers)
	if err != nil {
		return err
	}
	if len(mpd.Periods) > 1 {
		s.logger.Warnf("session %s: manifest has %d periods, only the first is used", s.id, len(mpd.Periods))
	}

	videoSel, audioSel, err := dash.SelectRepresentations(mpd, s.cfg.RepresentationID)
	if err != nil {
		return err
	}

	if err := s.resolvePendingKey(videoSel, audioSel); err != nil {
		return err
	}

	writer, err := hls.NewWriter(s.cfg.OutputDir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.mpd = mpd
	s.requestURL = requestURL
	s.writer = writer
	s.mu.Unlock()

	var videoInfo, audioInfo *hls.RepInfo
	if videoSel != nil {
		vr, err := s.initVariant(mpd, requestURL, dash.KindVideo, videoSel)
		if err != nil {
			return err
		}
		s.video = vr
		rep := vr.sel.Representation
		videoInfo = &hls.RepInfo{ID: rep.ID, Bandwidth: rep.Bandwidth, Codecs: rep.Codecs, Width: rep.Width, Height: rep.Height}
	}
	if audioSel != nil {
		ar, err := s.initVariant(mpd, requestURL, dash.KindAudio, audioSel)
		if err != nil {
			return err
		}
		s.audio = ar
		rep := ar.sel.Representation
		audioInfo = &hls.RepInfo{ID: rep.ID, Bandwidth: rep.Bandwidth, Codecs: rep.Codecs}
	}

	return writer.WriteMaster(videoInfo, audioInfo)
}

// initVariant enumerates the variant's full segment set (needed either
// to size the VOD ring buffer exactly or, for live, just to find the
// init URL and timescale), creates its writer-side MediaPlaylist, and
// fetches+decrypts+writes its init segment.
func (s *Session) initVariant(mpd *dash.MPD, requestURL string, kind dash.ContentKind, sel *dash.Selected) (*variantRuntime, error) {
	refs, err := s.enumerate(mpd, requestURL, sel)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, errs.Manifest("no_segments_enumerated", nil)
	}

	windowSize := s.cfg.WindowSize
	capacity := windowSize + 4
	if !mpd.IsDynamic() {
		windowSize = 0
		capacity = len(refs)
	}

	vw, err := s.writer.InitVariant(kind, windowSize, capacity)
	if err != nil {
		return nil, err
	}

	initBytes, err := s.fetcher.Fetch(s.ctx, refs[0].InitURL, s.cfg.Headers, httpTimeout)
	if err != nil {
		return nil, errs.Manifest("init_fetch", err)
	}
	initBytes, err = s.maybeDecrypt(initBytes)
	if err != nil {
		return nil, err
	}
	if _, err := vw.WriteInit(initBytes, refs[0].Timescale); err != nil {
		return nil, err
	}

	return &variantRuntime{
		kind:      kind,
		sel:       sel,
		vw:        vw,
		processed: newFIFOSet(s.cfg.HistorySize),
		timescale: refs[0].Timescale,
		failures:  make(map[uint64]int),
	}, nil
}

func (s *Session) enumerate(mpd *dash.MPD, requestURL string, sel *dash.Selected) ([]dash.SegmentRef, error) {
	var mpdDuration float64
	if !mpd.IsDynamic() {
		mpdDuration = parseISODuration(mpd.MediaPresentationDur)
	}
	availabilityStart := parseISODateTime(mpd.AvailabilityStartTime)
	periodStart := parseISODuration(sel.Period.Start)

	return dash.EnumerateSegments(requestURL, mpd, sel.Period, sel.AdaptationSet, sel.Representation, mpdDuration, time.Now(), availabilityStart, periodStart)
}

// resolvePendingKey wires a kid-less cfg.Key into the manifest's own
// default_KID, per the recognized-options table's documented default
// ("inferred from MPD"). It looks at the selected video AdaptationSet
// first, then audio, and fails only if the manifest carries no KID at all
// to infer.
func (s *Session) resolvePendingKey(videoSel, audioSel *dash.Selected) error {
	if s.cfg.PendingKey == "" {
		return nil
	}

	var kid string
	if videoSel != nil {
		if kids := videoSel.AdaptationSet.KIDs(); len(kids) > 0 {
			kid = kids[0]
		}
	}
	if kid == "" && audioSel != nil {
		if kids := audioSel.AdaptationSet.KIDs(); len(kids) > 0 {
			kid = kids[0]
		}
	}
	if kid == "" {
		return errs.Config("kid_required: key given without kid and manifest carries no default_KID", nil)
	}

	if s.cfg.KeyMap == nil {
		s.cfg.KeyMap = make(map[string]string, 1)
	}
	s.cfg.KeyMap[kid] = s.cfg.PendingKey
	return nil
}

func (s *Session) maybeDecrypt(data []byte) ([]byte, error) {
	if len(s.cfg.KeyMap) == 0 {
		return data, nil
	}
	return s.decryptor.Decrypt(s.ctx, data, s.cfg.KeyMap)
}
