package service

// Notifier is the outbound side of the real-time channel. Implementations
// deliver best-effort: a push to an offline identity is a silent no-op and a
// transport failure never propagates back to the caller.
type Notifier interface {
	// Push delivers an event to one identity's live connection, if any.
	Push(userID, event string, payload any)
	// Broadcast delivers an event to every live connection.
	Broadcast(event string, payload any)
}
