package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil, testSecret, nil)
	go hub.Run(ctx)
	return hub
}

func TestHubLoginBroadcastsUserList(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	login(t, hub, alice, "alice")

	list := mustEvent(t, alice.Events, EventUserList)
	if len(list.Users) != 1 || list.Users[0].Username != "alice" || list.Users[0].IsAdmin {
		t.Fatalf("unexpected user list after first join: %+v", list.Users)
	}

	bob := NewClient("b")
	login(t, hub, bob, "bob")

	// Alice sees bob's join notification and a second snapshot.
	mustEvent(t, alice.Events, EventNotification)
	list = mustEvent(t, alice.Events, EventUserList)
	if len(list.Users) != 2 || list.Users[0].Username != "alice" || list.Users[1].Username != "bob" {
		t.Fatalf("unexpected user list after second join: %+v", list.Users)
	}
	for _, u := range list.Users {
		if u.IsAdmin {
			t.Fatalf("no user should be admin yet: %+v", list.Users)
		}
	}

	// Bob gets the snapshot that includes himself.
	list = mustEvent(t, bob.Events, EventUserList)
	if len(list.Users) != 2 {
		t.Fatalf("unexpected user list for bob: %+v", list.Users)
	}
}

func TestHubRejectsDuplicateLogin(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	login(t, hub, alice, "alice")

	intruder := NewClient("b")
	hub.RegisterClient(intruder)
	intruder.Commands <- &Command{Kind: CommandLogin, Username: "alice"}

	ev := mustEvent(t, intruder.Events, EventLoginResult)
	if ev.Success {
		t.Fatalf("duplicate login must be rejected: %+v", ev)
	}
	if ev.Error == nil || ev.Error.Code != ErrCodeNameTaken {
		t.Fatalf("expected name_taken, got %+v", ev.Error)
	}

	// The original connection keeps working.
	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "still here"}
	msg := mustEvent(t, alice.Events, EventChatMessage)
	if msg.Message.From != "alice" || msg.Message.Text != "still here" {
		t.Fatalf("unexpected message event: %+v", msg)
	}
}

func TestHubBroadcastsMessageWithReceiptTimestamp(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	login(t, hub, alice, "alice")
	login(t, hub, bob, "bob")

	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "hi", SentAt: "2026-01-02T15:04:05Z"}

	ev := mustEvent(t, bob.Events, EventChatMessage)
	if ev.Message.From != "alice" || ev.Message.Text != "hi" {
		t.Fatalf("unexpected message: %+v", ev.Message)
	}
	if ev.Message.SentAt != "2026-01-02T15:04:05Z" {
		t.Fatalf("client timestamp not passed through: %q", ev.Message.SentAt)
	}
	if ev.Message.ReceivedAt.IsZero() {
		t.Fatal("receipt timestamp not assigned")
	}

	// The sender receives its own broadcast too.
	mustEvent(t, alice.Events, EventChatMessage)
}

func TestHubVerifyAdminPromotes(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	login(t, hub, alice, "alice")
	login(t, hub, bob, "bob")
	promote(t, alice)

	// Everyone is told about the promotion.
	ev := mustEvent(t, bob.Events, EventNotification)
	for ev.Text != "alice is now an admin" {
		ev = mustEvent(t, bob.Events, EventNotification)
	}

	// And gets a snapshot reflecting the new privilege.
	var list *Event
	for {
		list = mustEvent(t, bob.Events, EventUserList)
		if len(list.Users) == 2 && list.Users[0].IsAdmin {
			break
		}
	}
	if list.Users[0].Username != "alice" {
		t.Fatalf("alice should be first in snapshot: %+v", list.Users)
	}
	if list.Users[1].IsAdmin {
		t.Fatalf("bob should not be admin: %+v", list.Users)
	}
}

func TestHubVerifyAdminWrongSecret(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	login(t, hub, alice, "alice")

	alice.Commands <- &Command{Kind: CommandVerifyAdmin, Secret: "wrong"}
	ev := mustEvent(t, alice.Events, EventAdminVerified)
	if ev.Success {
		t.Fatal("wrong secret must not verify")
	}
	if ev.Error == nil || ev.Error.Code != ErrCodeInvalidAdminSecret {
		t.Fatalf("expected invalid_admin_secret, got %+v", ev.Error)
	}

	// No promotion notification goes out.
	mustNoEvent(t, alice.Events, EventNotification)
}

func TestHubAdminPersistsAcrossReconnect(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	login(t, hub, alice, "alice")
	promote(t, alice)

	hub.UnregisterClient(alice)
	mustClosed(t, alice.Events)

	again := NewClient("a2")
	hub.RegisterClient(again)
	again.Commands <- &Command{Kind: CommandLogin, Username: "alice"}
	ev := mustEvent(t, again.Events, EventLoginResult)
	if !ev.Success || !ev.IsAdmin {
		t.Fatalf("admin status must be re-derived at login: %+v", ev)
	}
}

func TestHubBanDisconnectsTarget(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	login(t, hub, alice, "alice")
	login(t, hub, bob, "bob")
	promote(t, alice)

	alice.Commands <- &Command{Kind: CommandBan, Target: "bob"}

	notice := mustEvent(t, bob.Events, EventBanNotice)
	if notice.Text == "" {
		t.Fatal("ban notice must carry a message")
	}
	mustClosed(t, bob.Events)

	// Remaining clients get the ban notification and a snapshot without bob.
	var sawBanNotification bool
	for !sawBanNotification {
		ev := mustEvent(t, alice.Events, EventNotification)
		if ev.Text == "bob was banned" {
			sawBanNotification = true
		}
	}
	var list *Event
	for {
		list = mustEvent(t, alice.Events, EventUserList)
		if len(list.Users) == 1 {
			break
		}
	}
	if list.Users[0].Username != "alice" {
		t.Fatalf("unexpected snapshot after ban: %+v", list.Users)
	}
}

func TestHubBannedUserCannotLogin(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	login(t, hub, alice, "alice")
	login(t, hub, bob, "bob")
	promote(t, alice)

	alice.Commands <- &Command{Kind: CommandBan, Target: "bob"}
	mustClosed(t, bob.Events)

	again := NewClient("b2")
	hub.RegisterClient(again)
	again.Commands <- &Command{Kind: CommandLogin, Username: "bob"}

	ev := mustEvent(t, again.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeBanned {
		t.Fatalf("expected banned error, got %+v", ev)
	}
	mustNoEvent(t, again.Events, EventLoginResult)
}

func TestHubNonAdminBanRejected(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	login(t, hub, alice, "alice")
	login(t, hub, bob, "bob")

	bob.Commands <- &Command{Kind: CommandBan, Target: "alice"}

	ev := mustEvent(t, bob.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotAuthorized {
		t.Fatalf("expected not_authorized, got %+v", ev)
	}

	// No state mutated: alice is still registered and reachable.
	bob.Commands <- &Command{Kind: CommandSendMessage, Text: "ping"}
	msg := mustEvent(t, alice.Events, EventChatMessage)
	if msg.Message.From != "bob" {
		t.Fatalf("unexpected message: %+v", msg.Message)
	}
	mustNoEvent(t, alice.Events, EventUserList)
}

func TestHubCannotBanAdmin(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	login(t, hub, alice, "alice")
	login(t, hub, bob, "bob")
	promote(t, alice)
	promote(t, bob)

	alice.Commands <- &Command{Kind: CommandBan, Target: "bob"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeCannotBanAdmin {
		t.Fatalf("expected cannot_ban_admin, got %+v", ev)
	}

	// Bob is untouched.
	bob.Commands <- &Command{Kind: CommandSendMessage, Text: "still here"}
	mustEvent(t, alice.Events, EventChatMessage)
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	bob := NewClient("b")
	login(t, hub, alice, "alice")
	login(t, hub, bob, "bob")

	hub.UnregisterClient(alice)
	hub.UnregisterClient(alice)
	mustClosed(t, alice.Events)

	ev := mustEvent(t, bob.Events, EventNotification)
	for ev.Text != "alice left the chat" {
		ev = mustEvent(t, bob.Events, EventNotification)
	}
	var list *Event
	for {
		list = mustEvent(t, bob.Events, EventUserList)
		if len(list.Users) == 1 {
			break
		}
	}
	if list.Users[0].Username != "bob" {
		t.Fatalf("unexpected snapshot after leave: %+v", list.Users)
	}

	// The second unregister produced no extra notification.
	mustNoEvent(t, bob.Events, EventNotification)
}

func TestHubIgnoresCommandsBeforeLogin(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a")
	login(t, hub, alice, "alice")

	lurker := NewClient("l")
	hub.RegisterClient(lurker)

	lurker.Commands <- &Command{Kind: CommandSendMessage, Text: "sneaky"}
	lurker.Commands <- &Command{Kind: CommandBan, Target: "alice"}
	lurker.Commands <- &Command{Kind: CommandVerifyAdmin, Secret: testSecret}

	mustNoEvent(t, alice.Events, EventChatMessage)
	mustNoEvent(t, lurker.Events, EventError)

	// Alice was not banned.
	alice.Commands <- &Command{Kind: CommandSendMessage, Text: "fine"}
	mustEvent(t, alice.Events, EventChatMessage)
}

func TestHubShutdownClosesSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, testSecret, nil)
	go hub.Run(ctx)

	alice := NewClient("a")
	login(t, hub, alice, "alice")

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-alice.Events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events not closed on shutdown")
		}
	}
}
