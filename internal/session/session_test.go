package session

import (
	"encoding/xml"
	"testing"

	"dash2hlsd/internal/config"
	"dash2hlsd/internal/dash"
	"dash2hlsd/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kidContentProtection(kid string) dash.ContentProtection {
	return dash.ContentProtection{
		Attrs: []xml.Attr{{Name: xml.Name{Local: "default_KID"}, Value: kid}},
	}
}

func TestResolvePendingKeyInfersKIDFromVideoAdaptationSet(t *testing.T) {
	cfg := &config.Normalized{PendingKey: "00112233445566778899aabbccddeeff"}
	sess := New("id", cfg, Deps{Logger: logger.NewLogger("error")})

	as := &dash.AdaptationSet{ContentProtections: []dash.ContentProtection{
		kidContentProtection("AABBCCDD-EEFF-0011-2233-445566778899"),
	}}
	videoSel := &dash.Selected{AdaptationSet: as, Representation: &dash.Representation{ID: "v1"}}

	require.NoError(t, sess.resolvePendingKey(videoSel, nil))
	assert.Equal(t, map[string]string{"aabbccddeeff00112233445566778899": "00112233445566778899aabbccddeeff"}, cfg.KeyMap)
}

func TestResolvePendingKeyFallsBackToAudioAdaptationSet(t *testing.T) {
	const key = "11111111111111111111111111111111"
	const kid = "22222222222222222222222222222222"

	cfg := &config.Normalized{PendingKey: key}
	sess := New("id", cfg, Deps{Logger: logger.NewLogger("error")})

	audio := &dash.AdaptationSet{ContentProtections: []dash.ContentProtection{
		kidContentProtection(kid),
	}}
	audioSel := &dash.Selected{AdaptationSet: audio, Representation: &dash.Representation{ID: "a1"}}

	require.NoError(t, sess.resolvePendingKey(nil, audioSel))
	assert.Equal(t, map[string]string{kid: key}, cfg.KeyMap)
}

func TestResolvePendingKeyFailsWhenManifestHasNoKID(t *testing.T) {
	cfg := &config.Normalized{PendingKey: "00112233445566778899aabbccddeeff"}
	sess := New("id", cfg, Deps{Logger: logger.NewLogger("error")})

	as := &dash.AdaptationSet{}
	videoSel := &dash.Selected{AdaptationSet: as, Representation: &dash.Representation{ID: "v1"}}

	err := sess.resolvePendingKey(videoSel, nil)
	assert.Error(t, err)
}

func TestResolvePendingKeyNoopWhenNoPendingKey(t *testing.T) {
	cfg := &config.Normalized{}
	sess := New("id", cfg, Deps{Logger: logger.NewLogger("error")})
	require.NoError(t, sess.resolvePendingKey(nil, nil))
	assert.Nil(t, cfg.KeyMap)
}
