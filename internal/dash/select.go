package dash

import "dash2hlsd/internal/errs"

// Selected pairs a chosen Representation with its owning AdaptationSet and
// Period, since downstream segment enumeration needs all three.
type Selected struct {
	Period         *Period
	AdaptationSet  *AdaptationSet
	Representation *Representation
}

// SelectRepresentations is a pure function: given a manifest and the
// representationID override (empty string means "none"), it deterministically
// picks at most one video and one audio representation from the first
// Period. Text AdaptationSets are ignored.
func SelectRepresentations(mpd *MPD, representationID string) (video, audio *Selected, err error) {
	if len(mpd.Periods) == 0 {
		return nil, nil, errs.Config("no_usable_representation", nil)
	}
	period := &mpd.Periods[0]

	if representationID != "" {
		for i := range period.Sets {
			as := &period.Sets[i]
			for j := range as.Representations {
				rep := &as.Representations[j]
				if rep.ID != representationID {
					continue
				}
				sel := &Selected{Period: period, AdaptationSet: as, Representation: rep}
				switch as.EffectiveContentType() {
				case KindAudio:
					return nil, sel, nil
				default:
					return sel, nil, nil
				}
			}
		}
		return nil, nil, errs.Config("no_usable_representation", nil)
	}

	video = bestByBandwidth(period, KindVideo)
	audio = bestByBandwidth(period, KindAudio)

	if video == nil && audio == nil {
		return nil, nil, errs.Config("no_usable_representation", nil)
	}
	return video, audio, nil
}

// bestByBandwidth scans every AdaptationSet of the given kind in the
// Period and returns a pointer to the highest-bandwidth Representation,
// breaking ties by first-seen order.
func bestByBandwidth(period *Period, kind ContentKind) *Selected {
	var best *Selected
	var bestBandwidth int
	first := true

	for i := range period.Sets {
		as := &period.Sets[i]
		if as.EffectiveContentType() != kind {
			continue
		}
		for j := range as.Representations {
			rep := &as.Representations[j]
			if first || rep.Bandwidth > bestBandwidth {
				best = &Selected{Period: period, AdaptationSet: as, Representation: rep}
				bestBandwidth = rep.Bandwidth
				first = false
			}
		}
	}
	return best
}
