package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/guilleprfc/video-chat-app/internal/domain"
)

const switchVerb = "switchRooms"

var (
	// ErrNotSwitchCommand marks a private message that is not a switch
	// order; callers treat it as ordinary text.
	ErrNotSwitchCommand = errors.New("not a switch command")
	// ErrSwitchPending rejects a switch while another one is in flight.
	ErrSwitchPending = errors.New("a room switch is already pending")
)

// SwitchCommand moves the receiving client between rooms. On the wire it
// is a pipe-delimited string: switchRooms|<sourceRoom>|<destinationRoom>.
type SwitchCommand struct {
	Source      domain.RoomID
	Destination domain.RoomID
}

func (c SwitchCommand) Encode() string {
	return fmt.Sprintf("%s|%d|%d", switchVerb, c.Source, c.Destination)
}

// ParseSwitchCommand decodes a private message payload. It returns
// ErrNotSwitchCommand when the verb does not match, and a descriptive
// error for a malformed payload carrying the right verb.
func ParseSwitchCommand(text string) (SwitchCommand, error) {
	parts := strings.Split(text, "|")
	if len(parts) == 0 || parts[0] != switchVerb {
		return SwitchCommand{}, ErrNotSwitchCommand
	}
	if len(parts) != 3 {
		return SwitchCommand{}, fmt.Errorf("switch command wants 3 fields, got %d", len(parts))
	}
	src, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return SwitchCommand{}, fmt.Errorf("bad source room %q: %w", parts[1], err)
	}
	dst, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return SwitchCommand{}, fmt.Errorf("bad destination room %q: %w", parts[2], err)
	}
	return SwitchCommand{
		Source:      domain.RoomID(src),
		Destination: domain.RoomID(dst),
	}, nil
}
