package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeLogin       = "login"
	InboundTypeMessage     = "message"
	InboundTypeVerifyAdmin = "verifyAdmin"
	InboundTypeBan         = "ban"

	OutboundTypeLogin         = "login"
	OutboundTypeMessage       = "message"
	OutboundTypeNotification  = "notification"
	OutboundTypeUserList      = "userList"
	OutboundTypeAdminVerified = "adminVerified"
	OutboundTypeBanned        = "banned"
	OutboundTypeError         = "error"
)

// LoginData claims a username for the connection.
type LoginData struct {
	Username string `json:"username"`
}

// MessageData is a chat message from the client. Timestamp is the client's
// send time, echoed back so the UI can display transit latency.
type MessageData struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// VerifyAdminData carries the candidate admin secret.
type VerifyAdminData struct {
	Password string `json:"password"`
}

// BanData names the user to eject.
type BanData struct {
	Username string `json:"username"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// LoginResult answers a login attempt.
type LoginResult struct {
	Success bool   `json:"success"`
	IsAdmin bool   `json:"isAdmin"`
	Message string `json:"message,omitempty"`
}

// EventMessage is a broadcast chat message.
type EventMessage struct {
	Username          string `json:"username"`
	IsAdmin           bool   `json:"isAdmin"`
	Text              string `json:"text"`
	SentTimestamp     string `json:"sentTimestamp"`
	ReceivedTimestamp string `json:"receivedTimestamp"`
}

// Notification is an informational broadcast not tied to a request.
type Notification struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// UserEntry is one row of the user list.
type UserEntry struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// UserList is a full replacement snapshot of connected users.
type UserList struct {
	Users []UserEntry `json:"users"`
}

// AdminVerified answers an admin verification attempt.
type AdminVerified struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BannedNotice is sent to the ban target just before the server closes the
// connection.
type BannedNotice struct {
	Message string `json:"message"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
