package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guilleprfc/video-chat-app/internal/core"
)

func TestParseAudioJoined(t *testing.T) {
	ev, err := ParseAudioEvent(json.RawMessage(`{
		"audiobridge": "joined",
		"room": 1000000,
		"id": 77,
		"participants": [{"id": 11, "display": "Alice", "setup": true, "muted": false}]
	}`))
	require.NoError(t, err)

	joined, ok := ev.(core.AudioJoined)
	require.True(t, ok)
	require.EqualValues(t, 1000000, joined.Room)
	require.Equal(t, int64(77), joined.ID)
	require.Len(t, joined.Participants, 1)
	require.Equal(t, "Alice", joined.Participants[0].Display)
}

func TestParseAudioPeerLeft(t *testing.T) {
	ev, err := ParseAudioEvent(json.RawMessage(`{"audiobridge":"event","room":42,"leaving":11}`))
	require.NoError(t, err)

	left, ok := ev.(core.AudioPeerLeft)
	require.True(t, ok)
	require.Equal(t, int64(11), left.ID)
}

func TestParseAudioTalking(t *testing.T) {
	ev, err := ParseAudioEvent(json.RawMessage(`{"audiobridge":"talking","room":42,"id":11}`))
	require.NoError(t, err)
	talk, ok := ev.(core.AudioTalking)
	require.True(t, ok)
	require.True(t, talk.Talking)

	ev, err = ParseAudioEvent(json.RawMessage(`{"audiobridge":"stopped-talking","room":42,"id":11}`))
	require.NoError(t, err)
	talk, ok = ev.(core.AudioTalking)
	require.True(t, ok)
	require.False(t, talk.Talking)
}

func TestParseAudioError(t *testing.T) {
	ev, err := ParseAudioEvent(json.RawMessage(`{"audiobridge":"event","error":"no such room","error_code":485}`))
	require.NoError(t, err)

	ae, ok := ev.(core.AudioError)
	require.True(t, ok)
	require.Equal(t, 485, ae.Code)
	require.Equal(t, "no such room", ae.Reason)
}

func TestParseAudioUnknown(t *testing.T) {
	_, err := ParseAudioEvent(json.RawMessage(`{"audiobridge":"mystery"}`))
	require.Error(t, err)
}

func TestParseVideoSelfLeaveSentinel(t *testing.T) {
	ev, err := ParseVideoEvent(json.RawMessage(`{"videoroom":"event","room":42,"leaving":"ok"}`))
	require.NoError(t, err)

	self, ok := ev.(core.VideoSelfLeft)
	require.True(t, ok)
	require.EqualValues(t, 42, self.Room)
}

func TestParseVideoPeerLeaving(t *testing.T) {
	ev, err := ParseVideoEvent(json.RawMessage(`{"videoroom":"event","room":42,"leaving":21}`))
	require.NoError(t, err)

	left, ok := ev.(core.VideoPeerLeft)
	require.True(t, ok)
	require.Equal(t, int64(21), left.ID)
}

func TestParseVideoLeavingGarbage(t *testing.T) {
	_, err := ParseVideoEvent(json.RawMessage(`{"videoroom":"event","room":42,"leaving":"gone"}`))
	require.Error(t, err)
}

func TestParseVideoJoinedWithPublishers(t *testing.T) {
	ev, err := ParseVideoEvent(json.RawMessage(`{
		"videoroom": "joined",
		"room": 42,
		"id": 21,
		"publishers": [{"id": 31, "display": "Bob"}]
	}`))
	require.NoError(t, err)

	joined, ok := ev.(core.VideoJoined)
	require.True(t, ok)
	require.Equal(t, int64(21), joined.ID)
	require.Len(t, joined.Publishers, 1)
	require.Equal(t, "Bob", joined.Publishers[0].Display)
}

func TestParseVideoPublishersEvent(t *testing.T) {
	ev, err := ParseVideoEvent(json.RawMessage(`{
		"videoroom": "event",
		"room": 42,
		"publishers": [{"id": 31, "display": "Bob"}]
	}`))
	require.NoError(t, err)

	pubs, ok := ev.(core.VideoPublishers)
	require.True(t, ok)
	require.Len(t, pubs.Publishers, 1)
}

func TestPluginError(t *testing.T) {
	require.NoError(t, pluginError(json.RawMessage(`{"audiobridge":"success"}`)))

	err := pluginError(json.RawMessage(`{"error":"Room 42 already exists","error_code":486}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "486")
}

func TestParseVideoError(t *testing.T) {
	ev, err := ParseVideoEvent(json.RawMessage(`{"videoroom":"event","error":"unauthorized","error_code":403}`))
	require.NoError(t, err)

	ve, ok := ev.(core.VideoError)
	require.True(t, ok)
	require.Equal(t, 403, ve.Code)
}
