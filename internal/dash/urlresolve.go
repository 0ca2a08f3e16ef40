package dash

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// ResolveBaseURL walks the BaseURL precedence chain — Representation >
// AdaptationSet > Period > MPD > request URL — composing relative
// entries and resetting the chain whenever an absolute one is seen, per
// RFC 3986 reference resolution.
func ResolveBaseURL(requestURL string, mpd *MPD, period *Period, as *AdaptationSet, rep *Representation) (*url.URL, error) {
	base, err := url.Parse(requestURL)
	if err != nil {
		return nil, fmt.Errorf("parse request URL %q: %w", requestURL, err)
	}

	chain := []string{}
	if mpd != nil {
		chain = append(chain, mpd.BaseURL)
	}
	if period != nil {
		chain = append(chain, period.BaseURL)
	}
	if as != nil {
		chain = append(chain, as.BaseURL)
	}
	if rep != nil {
		chain = append(chain, rep.BaseURL)
	}

	for _, entry := range chain {
		if entry == "" {
			continue
		}
		ref, err := url.Parse(entry)
		if err != nil {
			return nil, fmt.Errorf("parse BaseURL %q: %w", entry, err)
		}
		base = base.ResolveReference(ref)
	}

	return base, nil
}

// placeholderPattern matches $Name$ or $Name%0Nd$ segment template
// placeholders, per the DASH IdentifierFormat grammar.
var placeholderPattern = regexp.MustCompile(`\$(RepresentationID|Number|Time|Bandwidth)(%0(\d+)d)?\$`)

// ExpandTemplate substitutes the recognized SegmentTemplate placeholders.
// number, t, and bandwidth may be nil when not applicable (e.g. no
// $Number$ in the initialization template).
func ExpandTemplate(tmpl, repID string, number, t *uint64, bandwidth *int) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		groups := placeholderPattern.FindStringSubmatch(match)
		name, width := groups[1], groups[3]

		var value string
		switch name {
		case "RepresentationID":
			return repID
		case "Number":
			if number == nil {
				return match
			}
			value = strconv.FormatUint(*number, 10)
		case "Time":
			if t == nil {
				return match
			}
			value = strconv.FormatUint(*t, 10)
		case "Bandwidth":
			if bandwidth == nil {
				return match
			}
			value = strconv.Itoa(*bandwidth)
		}

		if width != "" {
			if n, err := strconv.Atoi(width); err == nil {
				value = zeroPad(value, n)
			}
		}
		return value
	})
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
