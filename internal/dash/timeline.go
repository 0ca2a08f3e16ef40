package dash

import "sort"

// TimelineEntry is one expanded SegmentTimeline entry: a segment number,
// its start time, and its duration, all in the owning SegmentTemplate's
// timescale units.
type TimelineEntry struct {
	Number   uint64
	Time     uint64
	Duration uint64
}

// ExpandTimeline expands a SegmentTimeline's (t, d, r) triples into a flat
// list of (number, time, duration) entries. The first entry's number is
// startNumber; it increases by one per expanded entry. When a triple
// omits t, its start time continues from the previous entry's end.
func ExpandTimeline(tl *SegmentTimeline, startNumber int64) []TimelineEntry {
	if tl == nil {
		return nil
	}

	var entries []TimelineEntry
	var cursor uint64
	number := startNumber

	for _, s := range tl.Segments {
		if s.T != nil {
			cursor = *s.T
		}
		repeats := s.R
		if repeats < 0 {
			repeats = 0
		}
		for i := 0; i <= repeats; i++ {
			entries = append(entries, TimelineEntry{
				Number:   uint64(number),
				Time:     cursor,
				Duration: s.D,
			})
			number++
			cursor += s.D
		}
	}
	return entries
}

// MergeTimelines combines two SegmentTimelines keyed by start time, with
// newTimeline's entry winning on overlap. The result is sorted ascending
// by t so ExpandTimeline can assign consistent segment numbers across a
// manifest refresh.
func MergeTimelines(oldTimeline, newTimeline *SegmentTimeline) *SegmentTimeline {
	seen := make(map[uint64]S)

	add := func(tl *SegmentTimeline) {
		if tl == nil {
			return
		}
		var cursor uint64
		for _, s := range tl.Segments {
			if s.T != nil {
				cursor = *s.T
			}
			t := cursor
			entry := s
			entry.T = &t
			seen[t] = entry
			cursor += uint64(s.R+1) * s.D
		}
	}

	add(oldTimeline)
	add(newTimeline)

	merged := make([]S, 0, len(seen))
	for _, s := range seen {
		merged = append(merged, s)
	}
	sort.Slice(merged, func(i, j int) bool {
		return *merged[i].T < *merged[j].T
	})

	return &SegmentTimeline{Segments: merged}
}
