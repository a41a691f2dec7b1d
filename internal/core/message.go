package core

import "time"

// Message is the domain model for a broadcast chat message.
// SentAt is the client-supplied timestamp, kept opaque; ReceivedAt is
// assigned by the hub when the broadcast is built.
type Message struct {
	From       string
	FromAdmin  bool
	Text       string
	SentAt     string
	ReceivedAt time.Time
}
