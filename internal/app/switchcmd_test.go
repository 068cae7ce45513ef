package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwitchCommandRoundTrip(t *testing.T) {
	cmd := SwitchCommand{Source: 1000000, Destination: 42}
	encoded := cmd.Encode()
	require.Equal(t, "switchRooms|1000000|42", encoded)

	parsed, err := ParseSwitchCommand(encoded)
	require.NoError(t, err)
	require.Equal(t, cmd, parsed)
}

func TestParseSwitchCommandPlainText(t *testing.T) {
	_, err := ParseSwitchCommand("hello there")
	require.ErrorIs(t, err, ErrNotSwitchCommand)

	_, err = ParseSwitchCommand("")
	require.ErrorIs(t, err, ErrNotSwitchCommand)
}

func TestParseSwitchCommandMalformed(t *testing.T) {
	_, err := ParseSwitchCommand("switchRooms|1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotSwitchCommand)

	_, err = ParseSwitchCommand("switchRooms|one|2")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotSwitchCommand)

	_, err = ParseSwitchCommand("switchRooms|1|2|3")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotSwitchCommand)
}
