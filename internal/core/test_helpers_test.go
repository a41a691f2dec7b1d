package core

import (
	"testing"
	"time"
)

const testSecret = "secret123"

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for kind %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}

// mustNoEvent asserts that no event of the given kind arrives within the window.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	timeout := time.After(150 * time.Millisecond)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind == kind {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-timeout:
			return
		}
	}
}

// mustClosed drains the channel until it is closed by the hub.
func mustClosed(t *testing.T, ch <-chan *Event) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel was not closed")
		}
	}
}

// login drives a client through a successful login.
func login(t *testing.T, hub *Hub, c *Client, username string) {
	t.Helper()

	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandLogin, Username: username}
	ev := mustEvent(t, c.Events, EventLoginResult)
	if !ev.Success {
		t.Fatalf("login %q failed: %+v", username, ev)
	}
}

// promote verifies the admin secret for an already logged-in client.
func promote(t *testing.T, c *Client) {
	t.Helper()

	c.Commands <- &Command{Kind: CommandVerifyAdmin, Secret: testSecret}
	ev := mustEvent(t, c.Events, EventAdminVerified)
	if !ev.Success {
		t.Fatalf("admin verification failed: %+v", ev)
	}
}
