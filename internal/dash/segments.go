package dash

import (
	"net/url"
	"time"
)

// SegmentRef is a single enumerated media segment descriptor, derived
// from a Representation's effective SegmentTemplate. It is never
// persisted — it is recomputed on every manifest refresh.
type SegmentRef struct {
	Variant       ContentKind
	Number        uint64
	Time          uint64
	DurationTicks uint64
	Timescale     uint64
	URL           string
	InitURL       string
}

// DurationSeconds converts the segment's duration to seconds using its
// timescale.
func (s SegmentRef) DurationSeconds() float64 {
	if s.Timescale == 0 {
		return 0
	}
	return float64(s.DurationTicks) / float64(s.Timescale)
}

// EffectiveSegmentTemplate returns the Representation's own SegmentTemplate
// if set, else the one inherited from its AdaptationSet.
func EffectiveSegmentTemplate(as *AdaptationSet, rep *Representation) *SegmentTemplate {
	if rep.SegmentTemplate != nil {
		return rep.SegmentTemplate
	}
	return as.SegmentTemplate
}

// EnumerateSegments derives the SegmentRef list for one representation.
// requestURL is the URL the MPD was fetched from (the root of the BaseURL
// chain). mpdDuration is the parsed mediaPresentationDuration in seconds
// for static manifests; now/availabilityStart/periodStart drive the live
// high-water-mark formula for dynamic manifests.
func EnumerateSegments(requestURL string, mpd *MPD, period *Period, as *AdaptationSet, rep *Representation, mpdDurationSeconds float64, now, availabilityStart time.Time, periodStartSeconds float64) ([]SegmentRef, error) {
	tmpl := EffectiveSegmentTemplate(as, rep)
	if tmpl == nil {
		return nil, nil
	}

	base, err := ResolveBaseURL(requestURL, mpd, period, as, rep)
	if err != nil {
		return nil, err
	}

	kind := as.EffectiveContentType()
	startNumber := tmpl.EffectiveStartNumber()

	resolve := func(path string) (*url.URL, error) {
		ref, err := url.Parse(path)
		if err != nil {
			return nil, err
		}
		return base.ResolveReference(ref), nil
	}

	var initURL string
	if tmpl.Initialization != "" {
		initPath := ExpandTemplate(tmpl.Initialization, rep.ID, nil, nil, &rep.Bandwidth)
		initRef, err := resolve(initPath)
		if err != nil {
			return nil, err
		}
		initURL = initRef.String()
	}

	buildRef := func(number, t, duration uint64) (SegmentRef, error) {
		mediaPath := ExpandTemplate(tmpl.Media, rep.ID, &number, &t, &rep.Bandwidth)
		segURL, err := resolve(mediaPath)
		if err != nil {
			return SegmentRef{}, err
		}
		return SegmentRef{
			Variant:       kind,
			Number:        number,
			Time:          t,
			DurationTicks: duration,
			Timescale:     tmpl.Timescale,
			URL:           segURL.String(),
			InitURL:       initURL,
		}, nil
	}

	if tmpl.Timeline != nil {
		entries := ExpandTimeline(tmpl.Timeline, startNumber)
		refs := make([]SegmentRef, 0, len(entries))
		for _, e := range entries {
			ref, err := buildRef(e.Number, e.Time, e.Duration)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	}

	if tmpl.Duration == 0 || tmpl.Timescale == 0 {
		return nil, nil
	}

	var lastNumber uint64
	if mpd.IsDynamic() {
		elapsed := now.Sub(availabilityStart).Seconds() - periodStartSeconds
		if elapsed < 0 {
			elapsed = 0
		}
		offset := uint64(elapsed*float64(tmpl.Timescale)) / tmpl.Duration
		lastNumber = uint64(startNumber) + offset
	} else {
		count := uint64(mpdDurationSeconds*float64(tmpl.Timescale)) / tmpl.Duration
		if count == 0 {
			return nil, nil
		}
		lastNumber = uint64(startNumber) + count - 1
	}

	refs := make([]SegmentRef, 0, lastNumber-uint64(startNumber)+1)
	for n := uint64(startNumber); n <= lastNumber; n++ {
		segTime := (n - uint64(startNumber)) * tmpl.Duration
		ref, err := buildRef(n, segTime, tmpl.Duration)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
