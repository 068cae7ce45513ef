package domain

// SwitchRequest records an in-flight room switch on the client being
// moved. At most one may be pending at a time; it is consumed when the
// self-leave event for the source video room arrives.
type SwitchRequest struct {
	Display         string
	SourceRoom      RoomID
	DestinationRoom RoomID
}
