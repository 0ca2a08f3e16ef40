package session

import (
	"dash2hlsd/internal/dash"
	"dash2hlsd/internal/errs"
	"sort"
	"time"
)

// runLoop is the session's running-state driver: it refreshes the
// manifest (dynamic only), enumerates new segments per variant, and
// processes the two variants in parallel sub-tasks, joining before the
// next cycle. It owns the transition into stopping/stopped/error and
// always closes s.done on exit.
func (s *Session) runLoop() {
	defer close(s.done)

	interval := s.effectivePollInterval()
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.transitionStopped()
			return
		case <-timer.C:
		}

		if s.mpd.IsDynamic() {
			if err := s.refreshManifest(); err != nil {
				s.logger.Warnf("session %s: manifest refresh failed: %v", s.id, err)
				s.refreshFailures++
				if s.refreshFailures > maxConsecutiveFailures {
					s.fatal(errs.Manifest("refresh_failed", err))
					return
				}
			} else {
				s.refreshFailures = 0
			}
			interval = s.effectivePollInterval()
		}

		done, err := s.runCycle()
		if err != nil {
			s.fatal(err)
			return
		}
		if done {
			s.finalizeVOD()
			return
		}

		select {
		case <-s.ctx.Done():
			s.transitionStopped()
			return
		default:
		}
		timer.Reset(interval)
	}
}

func (s *Session) effectivePollInterval() time.Duration {
	interval := s.cfg.PollInterval
	if s.mpd != nil && s.mpd.IsDynamic() && s.mpd.MinimumUpdatePeriod != "" {
		if mup := parseISODurationAsDuration(s.mpd.MinimumUpdatePeriod); mup > interval {
			interval = mup
		}
	}
	if interval < minimumRefreshInterval {
		interval = minimumRefreshInterval
	}
	return interval
}

func (s *Session) refreshManifest() error {
	newMPD, newURL, err := s.dashClient.FetchAndParseMPD(s.ctx, s.cfg.MPDURL, s.cfg.Headers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if len(newMPD.Periods) > 0 {
		s.mergeVariantTimeline(newMPD, s.video)
		s.mergeVariantTimeline(newMPD, s.audio)
	}
	s.mpd = newMPD
	s.requestURL = newURL
	s.mu.Unlock()
	return nil
}

// mergeVariantTimeline finds vr's AdaptationSet in newMPD's first Period
// and, if present, merges its SegmentTimeline with the one vr already
// knows about, so a segment near the refresh boundary isn't renumbered.
func (s *Session) mergeVariantTimeline(newMPD *dash.MPD, vr *variantRuntime) {
	if vr == nil || len(newMPD.Periods) == 0 {
		return
	}
	period := &newMPD.Periods[0]
	for i := range period.Sets {
		as := &period.Sets[i]
		if as.ID != vr.sel.AdaptationSet.ID {
			continue
		}
		for j := range as.Representations {
			rep := &as.Representations[j]
			if rep.ID != vr.sel.Representation.ID {
				continue
			}
			newTmpl := dash.EffectiveSegmentTemplate(as, rep)
			oldTmpl := dash.EffectiveSegmentTemplate(vr.sel.AdaptationSet, vr.sel.Representation)
			if newTmpl != nil && oldTmpl != nil {
				newTmpl.Timeline = dash.MergeTimelines(oldTmpl.Timeline, newTmpl.Timeline)
			}
			vr.sel = &dash.Selected{Period: period, AdaptationSet: as, Representation: rep}
			return
		}
	}
}

// cycleResult is what one variant's processing round reports back to the
// joining run loop.
type cycleResult struct {
	fatalErr  error
	exhausted bool // true once every enumerated segment for a static manifest has been emitted
}

// runCycle enumerates and processes both variants' new segments in
// parallel, joining before returning so a caller observing the session
// between cycles sees a consistent snapshot (§5).
func (s *Session) runCycle() (done bool, err error) {
	s.mu.RLock()
	mpd := s.mpd
	requestURL := s.requestURL
	s.mu.RUnlock()

	resultCh := make(chan cycleResult, 2)
	active := 0

	for _, vr := range []*variantRuntime{s.video, s.audio} {
		if vr == nil {
			continue
		}
		active++
		go func(vr *variantRuntime) {
			resultCh <- s.processVariant(mpd, requestURL, vr)
		}(vr)
	}

	allExhausted := true
	var fatalErr error
	for i := 0; i < active; i++ {
		r := <-resultCh
		if r.fatalErr != nil && fatalErr == nil {
			fatalErr = r.fatalErr
		}
		if !r.exhausted {
			allExhausted = false
		}
	}
	if fatalErr != nil {
		return false, fatalErr
	}
	return !mpd.IsDynamic() && allExhausted, nil
}

func (s *Session) processVariant(mpd *dash.MPD, requestURL string, vr *variantRuntime) cycleResult {
	refs, err := s.enumerate(mpd, requestURL, vr.sel)
	if err != nil {
		s.logger.Warnf("session %s: enumerate failed for variant: %v", s.id, err)
		return cycleResult{}
	}

	var pending []dash.SegmentRef
	for _, ref := range refs {
		if vr.haveLast && ref.Number <= vr.lastNumber && vr.processed.Has(ref.Number) {
			continue
		}
		pending = append(pending, ref)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Number < pending[j].Number })

	for _, ref := range pending {
		select {
		case <-s.ctx.Done():
			return cycleResult{}
		default:
		}

		ok := s.processSegment(vr, ref)
		if !ok {
			vr.failures[ref.Number]++
			if vr.failures[ref.Number] > maxConsecutiveFailures {
				return cycleResult{fatalErr: errs.Session("segment_repeatedly_failed", vr.lastErr)}
			}
			continue
		}
		delete(vr.failures, ref.Number)
	}

	exhausted := !mpd.IsDynamic() && len(refs) > 0 && vr.haveLast && vr.lastNumber >= refs[len(refs)-1].Number
	return cycleResult{exhausted: exhausted}
}

// processSegment downloads, optionally decrypts, and appends one
// segment. It returns false (without advancing lastNumber or processed)
// on any failure so the segment is retried next cycle, except for a 404
// which is treated as "not yet available" and silently skipped.
func (s *Session) processSegment(vr *variantRuntime, ref dash.SegmentRef) bool {
	data, err := s.fetcher.Fetch(s.ctx, ref.URL, s.cfg.Headers, httpTimeout)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return true // not a failure: will reappear once the origin catches up
		}
		s.logger.Warnf("session %s: download failed for segment %d: %v", s.id, ref.Number, err)
		vr.lastErr = err
		return false
	}

	data, err = s.maybeDecrypt(data)
	if err != nil {
		s.logger.Warnf("session %s: decrypt failed for segment %d: %v", s.id, ref.Number, err)
		vr.lastErr = err
		return false
	}

	forceDiscontinuity := vr.timescale != ref.Timescale
	if forceDiscontinuity {
		vr.timescale = ref.Timescale
	}

	if err := vr.vw.AppendSegment(ref.Number, ref.DurationSeconds(), data, forceDiscontinuity); err != nil {
		s.logger.Warnf("session %s: write failed for segment %d: %v", s.id, ref.Number, err)
		vr.lastErr = err
		return false
	}

	vr.processed.Add(ref.Number)
	vr.lastNumber = ref.Number
	vr.haveLast = true
	return true
}

func (s *Session) fatal(err error) {
	s.mu.Lock()
	s.status = StatusError
	s.errorMessage = err.Error()
	s.mu.Unlock()
	s.logger.Errorf("session %s: fatal error: %v", s.id, err)
}

func (s *Session) finalizeVOD() {
	s.mu.Lock()
	s.status = StatusStopping
	s.mu.Unlock()

	if s.video != nil {
		if err := s.video.vw.Finalize(); err != nil {
			s.logger.Warnf("session %s: finalize video playlist: %v", s.id, err)
		}
	}
	if s.audio != nil {
		if err := s.audio.vw.Finalize(); err != nil {
			s.logger.Warnf("session %s: finalize audio playlist: %v", s.id, err)
		}
	}

	s.mu.Lock()
	s.status = StatusStopped
	s.mu.Unlock()
}

func (s *Session) transitionStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusError {
		return
	}
	s.status = StatusStopped
}
