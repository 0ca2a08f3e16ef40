// Package config defines a stream's session configuration and validates
// it into the normalized form the session state machine consumes.
package config

import (
	"dash2hlsd/internal/errs"
	"encoding/hex"
	"strings"
	"time"
)

// StreamConfig is the caller-supplied, as-received configuration for one
// stream session. Field names mirror the recognized options table.
type StreamConfig struct {
	MPDURL           string            `json:"mpd_url"`
	Key              string            `json:"key,omitempty"`
	KID              string            `json:"kid,omitempty"`
	KeyMap           map[string]string `json:"key_map,omitempty"`
	MP4DecryptPath   string            `json:"mp4decrypt_path,omitempty"`
	RepresentationID string            `json:"representation_id,omitempty"`
	Label            string            `json:"label,omitempty"`
	PollInterval     float64           `json:"poll_interval,omitempty"`
	WindowSize       int               `json:"window_size,omitempty"`
	HistorySize      int               `json:"history_size,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
	OutputDir        string            `json:"output_dir,omitempty"`
}

const (
	defaultPollInterval = 4 * time.Second
	defaultWindowSize   = 6
	defaultHistorySize  = 128
	defaultDecryptPath  = "mp4decrypt"
)

// Normalized is the validated, defaulted configuration a session is built
// from.
type Normalized struct {
	MPDURL           string
	KeyMap           map[string]string // kid (32 lowercase hex) -> key (32 lowercase hex)
	PendingKey       string            // normalized key awaiting KID inference from the manifest; set only when key was given without kid
	MP4DecryptPath   string
	RepresentationID string
	Label            string
	PollInterval     time.Duration
	WindowSize       int
	HistorySize      int
	Headers          map[string]string
	OutputDir        string
}

// Normalize validates a StreamConfig and fills in defaults, per the
// recognized-options table. OutputDir is left to the caller (the manager
// assigns one per session id) when unset here.
func Normalize(c StreamConfig) (*Normalized, error) {
	if c.MPDURL == "" {
		return nil, errs.Config("mpd_url is required", nil)
	}

	keyMap, pendingKey, err := buildKeyMap(c)
	if err != nil {
		return nil, err
	}

	pollInterval := defaultPollInterval
	if c.PollInterval > 0 {
		pollInterval = time.Duration(c.PollInterval * float64(time.Second))
	}

	windowSize := defaultWindowSize
	if c.WindowSize > 0 {
		windowSize = c.WindowSize
	}

	historySize := defaultHistorySize
	if c.HistorySize > 0 {
		historySize = c.HistorySize
	}

	decryptPath := defaultDecryptPath
	if c.MP4DecryptPath != "" {
		decryptPath = c.MP4DecryptPath
	}

	return &Normalized{
		MPDURL:           c.MPDURL,
		KeyMap:           keyMap,
		PendingKey:       pendingKey,
		MP4DecryptPath:   decryptPath,
		RepresentationID: c.RepresentationID,
		Label:            c.Label,
		PollInterval:     pollInterval,
		WindowSize:       windowSize,
		HistorySize:      historySize,
		Headers:          c.Headers,
		OutputDir:        c.OutputDir,
	}, nil
}

// buildKeyMap normalizes every explicit kid->key pair in c.KeyMap plus the
// single c.Key/c.KID pair, if set. When c.Key is set without a c.KID, its
// normalized key is returned as pendingKey rather than rejected: kid is
// allowed to be inferred from the MPD's own default_KID, so resolving it
// is deferred to the session, which can read the manifest once fetched.
func buildKeyMap(c StreamConfig) (keyMap map[string]string, pendingKey string, err error) {
	keyMap = make(map[string]string, len(c.KeyMap)+1)

	for kid, key := range c.KeyMap {
		nKID, nKey, err := normalizeKeyPair(kid, key)
		if err != nil {
			return nil, "", err
		}
		if nKID == "" {
			pendingKey = nKey
			continue
		}
		keyMap[nKID] = nKey
	}

	if c.Key != "" {
		nKID, nKey, err := normalizeKeyPair(c.KID, c.Key)
		if err != nil {
			return nil, "", err
		}
		if nKID == "" {
			pendingKey = nKey
		} else {
			keyMap[nKID] = nKey
		}
	}

	if len(keyMap) == 0 {
		keyMap = nil
	}
	return keyMap, pendingKey, nil
}

// normalizeKeyPair validates key and, when kid is non-empty, validates and
// normalizes it too. An empty kid is not an error: it returns ("", nKey,
// nil) so the caller can defer KID resolution to the manifest.
func normalizeKeyPair(kid, key string) (string, string, error) {
	nKey, err := normalizeHex32(key)
	if err != nil {
		return "", "", errs.Config("invalid key: must be 32 hex characters", err)
	}
	if kid == "" {
		return "", nKey, nil
	}
	nKID, err := normalizeHex32(kid)
	if err != nil {
		return "", "", errs.Config("invalid kid: must be 32 hex characters", err)
	}
	return nKID, nKey, nil
}

func normalizeHex32(s string) (string, error) {
	s = strings.ToLower(strings.ReplaceAll(s, "-", ""))
	if len(s) != 32 {
		return "", errs.Config("expected 32 hex characters", nil)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", err
	}
	return s, nil
}
