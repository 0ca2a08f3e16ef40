package dash

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnumerateSegmentsTimeline(t *testing.T) {
	as := &AdaptationSet{ID: "v", ContentType: "video"}
	rep := &Representation{ID: "v1", Bandwidth: 1000000, SegmentTemplate: &SegmentTemplate{
		Timescale:      1000,
		Initialization: "$RepresentationID$/init.mp4",
		Media:          "$RepresentationID$/$Number$.m4s",
		Timeline: &SegmentTimeline{Segments: []S{
			{T: tptr(0), D: 2000, R: 1},
		}},
	}}
	period := &Period{Sets: []AdaptationSet{*as}}

	refs, err := EnumerateSegments("https://cdn.example/live/stream.mpd", &MPD{}, period, as, rep, 0, time.Time{}, time.Time{}, 0)
	assert.NoError(t, err)
	assert.Len(t, refs, 2)
	assert.Equal(t, "https://cdn.example/live/v1/init.mp4", refs[0].InitURL)
	assert.Equal(t, "https://cdn.example/live/v1/1.m4s", refs[0].URL)
	assert.Equal(t, "https://cdn.example/live/v1/2.m4s", refs[1].URL)
	assert.Equal(t, 2.0, refs[0].DurationSeconds())
}

func TestEnumerateSegmentsStaticCount(t *testing.T) {
	as := &AdaptationSet{ID: "v", ContentType: "video"}
	rep := &Representation{ID: "v1", SegmentTemplate: &SegmentTemplate{
		Timescale: 1,
		Duration:  4,
		Media:     "$RepresentationID$/$Number$.m4s",
	}}
	period := &Period{}

	refs, err := EnumerateSegments("https://cdn.example/vod/stream.mpd", &MPD{Type: "static"}, period, as, rep, 20, time.Time{}, time.Time{}, 0)
	assert.NoError(t, err)
	assert.Len(t, refs, 5)
	assert.Equal(t, uint64(1), refs[0].Number)
	assert.Equal(t, uint64(5), refs[4].Number)
}

func TestEnumerateSegmentsLiveHighWaterMark(t *testing.T) {
	as := &AdaptationSet{ID: "v", ContentType: "video"}
	rep := &Representation{ID: "v1", SegmentTemplate: &SegmentTemplate{
		Timescale: 1,
		Duration:  2,
		Media:     "$RepresentationID$/$Number$.m4s",
	}}
	period := &Period{}
	availStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := availStart.Add(21 * time.Second)

	refs, err := EnumerateSegments("https://cdn.example/live/stream.mpd", &MPD{Type: "dynamic"}, period, as, rep, 0, now, availStart, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), refs[0].Number)
	assert.Equal(t, uint64(11), refs[len(refs)-1].Number)
}

func TestEnumerateSegmentsNoTemplateYieldsNothing(t *testing.T) {
	as := &AdaptationSet{}
	rep := &Representation{}
	refs, err := EnumerateSegments("https://cdn.example/x.mpd", &MPD{}, &Period{}, as, rep, 0, time.Time{}, time.Time{}, 0)
	assert.NoError(t, err)
	assert.Nil(t, refs)
}
