package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guilleprfc/video-chat-app/internal/core"
)

func TestEncodeControlJoin(t *testing.T) {
	payload, err := EncodeControlJoin("tx1", 1234, "Alice", "Alice")
	require.NoError(t, err)

	var env ControlEnvelope
	require.NoError(t, json.Unmarshal(payload, &env))
	require.Equal(t, "join", env.Textroom)
	require.Equal(t, "tx1", env.Transaction)
	require.EqualValues(t, 1234, env.Room)
	require.Equal(t, "Alice", env.Username)
}

func TestEncodeControlMessageWhisper(t *testing.T) {
	payload, err := EncodeControlMessage("tx2", 1234, "Bob", "switchRooms|1000000|42")
	require.NoError(t, err)

	var env ControlEnvelope
	require.NoError(t, json.Unmarshal(payload, &env))
	require.Equal(t, "message", env.Textroom)
	require.Equal(t, "Bob", env.To)
	require.Equal(t, "switchRooms|1000000|42", env.Text)
}

func TestParseControlEventMessage(t *testing.T) {
	ev, err := ParseControlEvent([]byte(`{"textroom":"message","from":"Guide","room":1234,"text":"hi","whisper":true}`))
	require.NoError(t, err)

	msg, ok := ev.(core.ControlMessage)
	require.True(t, ok)
	require.Equal(t, "Guide", msg.From)
	require.Equal(t, "hi", msg.Text)
	require.True(t, msg.Whisper)
}

func TestParseControlEventVariants(t *testing.T) {
	ev, err := ParseControlEvent([]byte(`{"textroom":"join","username":"Bob","display":"Bob"}`))
	require.NoError(t, err)
	require.IsType(t, core.ControlJoin{}, ev)

	ev, err = ParseControlEvent([]byte(`{"textroom":"leave","username":"Bob"}`))
	require.NoError(t, err)
	require.IsType(t, core.ControlLeave{}, ev)

	ev, err = ParseControlEvent([]byte(`{"textroom":"kicked","username":"Bob"}`))
	require.NoError(t, err)
	require.IsType(t, core.ControlKicked{}, ev)

	ev, err = ParseControlEvent([]byte(`{"textroom":"destroyed","room":1234}`))
	require.NoError(t, err)
	require.IsType(t, core.ControlDestroyed{}, ev)

	ev, err = ParseControlEvent([]byte(`{"textroom":"announcement","room":1234,"text":"tour starts"}`))
	require.NoError(t, err)
	require.IsType(t, core.ControlAnnouncement{}, ev)
}

func TestParseControlEventError(t *testing.T) {
	ev, err := ParseControlEvent([]byte(`{"textroom":"error","error":"no such room"}`))
	require.NoError(t, err)

	ce, ok := ev.(core.ControlError)
	require.True(t, ok)
	require.Equal(t, "no such room", ce.Reason)
}

func TestParseControlEventUnknownVerb(t *testing.T) {
	_, err := ParseControlEvent([]byte(`{"textroom":"dance"}`))
	require.Error(t, err)

	_, err = ParseControlEvent([]byte(`not json`))
	require.Error(t, err)
}
