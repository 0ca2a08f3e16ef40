// Package dash models MPEG-DASH manifests (MPD), resolves segment
// templates and BaseURL chains against them, and fetches manifests over
// HTTP.
package dash

import "encoding/xml"

// MPD is the root element of a Media Presentation Description.
type MPD struct {
	XMLName               xml.Name `xml:"MPD"`
	Type                  string   `xml:"type,attr"`
	Profiles              string   `xml:"profiles,attr"`
	MediaPresentationDur  string   `xml:"mediaPresentationDuration,attr"`
	MinimumUpdatePeriod   string   `xml:"minimumUpdatePeriod,attr"`
	TimeShiftBufferDepth  string   `xml:"timeShiftBufferDepth,attr"`
	AvailabilityStartTime string   `xml:"availabilityStartTime,attr"`
	SuggestedPresDelay    string   `xml:"suggestedPresentationDelay,attr"`
	PublishTime           string   `xml:"publishTime,attr"`
	MaxSegmentDuration    string   `xml:"maxSegmentDuration,attr"`
	MinBufferTime         string   `xml:"minBufferTime,attr"`
	BaseURL               string   `xml:"BaseURL"`
	Periods               []Period `xml:"Period"`
}

// IsDynamic reports whether this is a live (type="dynamic") manifest.
func (m *MPD) IsDynamic() bool { return m.Type == "dynamic" }

// Period represents a media content period.
type Period struct {
	ID       string          `xml:"id,attr"`
	Start    string          `xml:"start,attr"`
	Duration string          `xml:"duration,attr"`
	BaseURL  string          `xml:"BaseURL"`
	Sets     []AdaptationSet `xml:"AdaptationSet"`
}

// AdaptationSet represents a set of interchangeable representations.
type AdaptationSet struct {
	ID                 string              `xml:"id,attr"`
	ContentType        string              `xml:"contentType,attr"`
	Lang               string              `xml:"lang,attr,omitempty"`
	MimeType           string              `xml:"mimeType,attr"`
	Codecs             string              `xml:"codecs,attr,omitempty"`
	SegmentAlignment   bool                `xml:"segmentAlignment,attr"`
	StartWithSAP       int                 `xml:"startWithSAP,attr"`
	MaxWidth           int                 `xml:"maxWidth,attr,omitempty"`
	MaxHeight          int                 `xml:"maxHeight,attr,omitempty"`
	Par                string              `xml:"par,attr,omitempty"`
	BaseURL            string              `xml:"BaseURL"`
	ContentProtections []ContentProtection `xml:"ContentProtection"`
	Representations    []Representation    `xml:"Representation"`
	SegmentTemplate    *SegmentTemplate    `xml:"SegmentTemplate"`
}

// ContentProtection carries CENC key identification for an AdaptationSet.
// Different packagers qualify the default-KID attribute with different
// namespace prefixes (cenc:default_KID being the common one), so the raw
// attribute list is kept around for parseKID to scan.
type ContentProtection struct {
	SchemeIDURI string     `xml:"schemeIdUri,attr"`
	Attrs       []xml.Attr `xml:",any,attr"`
}

// Representation represents a specific media stream.
type Representation struct {
	ID                string           `xml:"id,attr"`
	Bandwidth         int              `xml:"bandwidth,attr"`
	Codecs            string           `xml:"codecs,attr"`
	MimeType          string           `xml:"mimeType,attr,omitempty"`
	Width             int              `xml:"width,attr,omitempty"`
	Height            int              `xml:"height,attr,omitempty"`
	FrameRate         string           `xml:"frameRate,attr,omitempty"`
	AudioSamplingRate int              `xml:"audioSamplingRate,attr,omitempty"`
	BaseURL           string           `xml:"BaseURL"`
	SegmentTemplate   *SegmentTemplate `xml:"SegmentTemplate"`
}

// SegmentTemplate defines the URL structure and numbering scheme for
// segments, inherited by Representations from their AdaptationSet unless
// overridden.
type SegmentTemplate struct {
	Timescale      uint64           `xml:"timescale,attr"`
	Duration       uint64           `xml:"duration,attr"`
	StartNumber    *int64           `xml:"startNumber,attr"`
	Initialization string           `xml:"initialization,attr"`
	Media          string           `xml:"media,attr"`
	Timeline       *SegmentTimeline `xml:"SegmentTimeline"`
}

// EffectiveStartNumber returns the configured startNumber, defaulting to 1
// per the DASH spec.
func (t *SegmentTemplate) EffectiveStartNumber() int64 {
	if t == nil || t.StartNumber == nil {
		return 1
	}
	return *t.StartNumber
}

// SegmentTimeline defines the timeline of segments.
type SegmentTimeline struct {
	Segments []S `xml:"S"`
}

// S represents a single segment or a run of R+1 identical-duration segments.
type S struct {
	T *uint64 `xml:"t,attr"`
	D uint64  `xml:"d,attr"`
	R int     `xml:"r,attr"`
}
