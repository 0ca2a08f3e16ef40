package dash

import "strings"

// ContentKind is the inferred kind of an AdaptationSet's content.
type ContentKind string

const (
	KindVideo ContentKind = "video"
	KindAudio ContentKind = "audio"
	KindText  ContentKind = "text"
)

// EffectiveContentType returns the AdaptationSet's content type. When the
// @contentType attribute is absent it infers it from the AdaptationSet's
// MIME type, then from its own codec string or, when that is empty, from
// the first Representation carrying a codec string (a Representation MIME
// type seen before it decides first); anything unrecognized is text.
func (as *AdaptationSet) EffectiveContentType() ContentKind {
	if k := contentKindFromString(as.ContentType); k != "" {
		return k
	}
	if k := contentKindFromMIME(as.MimeType); k != "" {
		return k
	}
	codecs := as.Codecs
	if codecs == "" {
		for _, rep := range as.Representations {
			if rep.Codecs != "" {
				codecs = rep.Codecs
				break
			}
			if rep.MimeType != "" {
				if k := contentKindFromMIME(rep.MimeType); k != "" {
					return k
				}
			}
		}
	}
	if k := contentKindFromCodec(codecs); k != "" {
		return k
	}
	return KindText
}

func contentKindFromString(s string) ContentKind {
	switch strings.ToLower(s) {
	case "video":
		return KindVideo
	case "audio":
		return KindAudio
	case "text":
		return KindText
	default:
		return ""
	}
}

func contentKindFromMIME(mime string) ContentKind {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	default:
		return ""
	}
}

var audioCodecPrefixes = []string{"mp4a", "ac-3", "ec-3"}
var videoCodecPrefixes = []string{"avc", "hev", "hvc", "vp", "av01"}

func contentKindFromCodec(codecs string) ContentKind {
	first := strings.SplitN(codecs, ",", 2)[0]
	first = strings.TrimSpace(strings.ToLower(first))
	for _, p := range audioCodecPrefixes {
		if strings.HasPrefix(first, p) {
			return KindAudio
		}
	}
	for _, p := range videoCodecPrefixes {
		if strings.HasPrefix(first, p) {
			return KindVideo
		}
	}
	return ""
}
