package config

import (
	"testing"
	"time"

	"dash2hlsd/internal/errs"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRequiresMPDURL(t *testing.T) {
	_, err := Normalize(StreamConfig{})
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	n, err := Normalize(StreamConfig{MPDURL: "https://cdn.example/stream.mpd"})
	assert.NoError(t, err)
	assert.Equal(t, defaultPollInterval, n.PollInterval)
	assert.Equal(t, defaultWindowSize, n.WindowSize)
	assert.Equal(t, defaultHistorySize, n.HistorySize)
	assert.Equal(t, defaultDecryptPath, n.MP4DecryptPath)
	assert.Nil(t, n.KeyMap)
}

func TestNormalizeOverridesDefaults(t *testing.T) {
	n, err := Normalize(StreamConfig{
		MPDURL:       "https://cdn.example/stream.mpd",
		PollInterval: 2.5,
		WindowSize:   10,
		HistorySize:  50,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, n.PollInterval)
	assert.Equal(t, 10, n.WindowSize)
	assert.Equal(t, 50, n.HistorySize)
}

func TestNormalizeKeyAndKID(t *testing.T) {
	n, err := Normalize(StreamConfig{
		MPDURL: "https://cdn.example/stream.mpd",
		Key:    "00112233445566778899AABBCCDDEEFF",
		KID:    "AABBCCDD-EEFF-0011-2233-445566778899",
	})
	assert.NoError(t, err)
	assert.Len(t, n.KeyMap, 1)
	for kid, key := range n.KeyMap {
		assert.Equal(t, "aabbccddeeff00112233445566778899", kid)
		assert.Equal(t, "00112233445566778899aabbccddeeff", key)
	}
}

func TestNormalizeRejectsBadHexLength(t *testing.T) {
	_, err := Normalize(StreamConfig{
		MPDURL: "https://cdn.example/stream.mpd",
		Key:    "deadbeef",
		KID:    "00112233445566778899aabbccddeeff",
	})
	assert.True(t, errs.Is(err, errs.KindConfig))
}

func TestNormalizeKeyWithoutKIDIsPendingNotRejected(t *testing.T) {
	n, err := Normalize(StreamConfig{
		MPDURL: "https://cdn.example/stream.mpd",
		Key:    "00112233445566778899aabbccddeeff",
	})
	assert.NoError(t, err)
	assert.Nil(t, n.KeyMap)
	assert.Equal(t, "00112233445566778899aabbccddeeff", n.PendingKey)
}

func TestNormalizeMergesKeyMapAndSingleKey(t *testing.T) {
	n, err := Normalize(StreamConfig{
		MPDURL: "https://cdn.example/stream.mpd",
		KeyMap: map[string]string{
			"11111111111111111111111111111111": "22222222222222222222222222222222",
		},
		Key: "33333333333333333333333333333333",
		KID: "44444444444444444444444444444444",
	})
	assert.NoError(t, err)
	assert.Len(t, n.KeyMap, 2)
}
