package core

import "sync"

// Client is a connected participant as seen by the core layer.
// Username stays empty until the hub accepts a login for this connection;
// Username and IsAdmin are mutated only by the hub goroutine afterwards.
type Client struct {
	ID       string
	Username string
	IsAdmin  bool
	Commands chan *Command
	Events   chan *Event

	closeCmds sync.Once
	// eventsClosed is owned by the hub goroutine.
	eventsClosed bool
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
	}
}

// CloseCommands closes the inbound command channel. Safe to call more than
// once; only the transport side may call it.
func (c *Client) CloseCommands() {
	c.closeCmds.Do(func() {
		close(c.Commands)
	})
}
