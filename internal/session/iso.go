package session

import (
	"regexp"
	"strconv"
	"time"
)

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseISODuration parses the subset of ISO 8601 durations DASH manifests
// use for mediaPresentationDuration, minimumUpdatePeriod, and Period@start
// (PnDTnHnMnS). An empty or unparsable input yields zero.
func parseISODuration(s string) float64 {
	if s == "" {
		return 0
	}
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	days, _ := strconv.ParseFloat(orZero(m[1]), 64)
	hours, _ := strconv.ParseFloat(orZero(m[2]), 64)
	minutes, _ := strconv.ParseFloat(orZero(m[3]), 64)
	seconds, _ := strconv.ParseFloat(orZero(m[4]), 64)
	return days*86400 + hours*3600 + minutes*60 + seconds
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// parseISODateTime parses an MPD @availabilityStartTime / @publishTime
// value, returning the zero time on failure (treated as "no offset").
func parseISODateTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseISODurationAsDuration is parseISODuration's time.Duration form,
// used for poll-interval bounds like minimumUpdatePeriod.
func parseISODurationAsDuration(s string) time.Duration {
	return time.Duration(parseISODuration(s) * float64(time.Second))
}
