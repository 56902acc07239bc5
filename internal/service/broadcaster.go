package service

// Broadcaster pushes session lifecycle events to the admin live feed
// (avoids an import cycle with the ws transport).
type Broadcaster interface {
	BroadcastToAdmins(msgType string, payload interface{})
}
