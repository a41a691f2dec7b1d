package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventLoginResult answers a login attempt on the issuing connection.
	EventLoginResult EventKind = iota
	// EventChatMessage carries a broadcast chat message.
	EventChatMessage
	// EventNotification is an informational broadcast (join/leave/ban/promotion).
	EventNotification
	// EventUserList is a full replacement snapshot of connected users.
	EventUserList
	// EventAdminVerified answers an admin verification attempt.
	EventAdminVerified
	// EventBanNotice tells the target it has been banned, just before close.
	EventBanNotice
	// EventError reports a domain error to one client.
	EventError
)

// UserInfo is one entry of a user-list snapshot.
type UserInfo struct {
	Username string
	IsAdmin  bool
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Success bool       // login result, admin verification
	IsAdmin bool       // login result: derived admin status
	Message Message    // chat message payload
	Text    string     // notification or ban notice text
	At      time.Time  // notification timestamp
	Users   []UserInfo // user list snapshot, insertion order
	Error   *CoreError // error details, also failure reason on replies
}
