package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandLogin claims a username for this connection.
	CommandLogin CommandKind = iota
	// CommandSendMessage broadcasts a chat message to everyone.
	CommandSendMessage
	// CommandVerifyAdmin checks the admin secret and promotes the sender.
	CommandVerifyAdmin
	// CommandBan ejects the target user and blocks future logins.
	CommandBan
)

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Username string // login: requested name
	Target   string // ban: username to eject
	Text     string // message body
	SentAt   string // message: client-supplied timestamp, passed through
	Secret   string // verifyAdmin: candidate secret
}
