package service

// Notifier delivers realtime events to the members of a session room. It is
// implemented by the websocket hub; defining it here avoids an import cycle.
// Every method is fire-and-forget.
type Notifier interface {
	JoinRoom(sessionID, userID string)
	// LeaveRoom undoes one JoinRoom; EvictFromRoom undoes all of them.
	LeaveRoom(sessionID, userID string)
	EvictFromRoom(sessionID, userID string)
	Broadcast(sessionID string, msgType string, payload interface{})
	BroadcastExcept(sessionID, exceptUserID string, msgType string, payload interface{})
	EmitTo(userID string, msgType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) JoinRoom(string, string)                             {}
func (noopNotifier) LeaveRoom(string, string)                            {}
func (noopNotifier) EvictFromRoom(string, string)                        {}
func (noopNotifier) Broadcast(string, string, interface{})               {}
func (noopNotifier) BroadcastExcept(string, string, string, interface{}) {}
func (noopNotifier) EmitTo(string, string, interface{})                  {}
