package core

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/modchat-server/internal/store"
)

// Hub owns the authoritative chat state: the registry of logged-in
// connections, the ban set, and the admin set. All state lives on the Run
// goroutine; sessions talk to it through their Commands channel and receive
// results on their Events channel, so no locking is needed anywhere in the
// core.
type Hub struct {
	attach  chan *Client
	detach  chan *Client
	inbound chan inboundCommand

	secret string
	store  store.ModerationStore
	log    zerolog.Logger

	// Owned by the Run goroutine.
	registry map[string]*Client
	order    []*Client
	sessions map[*Client]struct{}
	banned   map[string]struct{}
	admins   map[string]struct{}
}

type inboundCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub. st may be nil (no persistence); secret is the shared
// admin secret, empty disables admin verification.
func NewHub(st store.ModerationStore, secret string, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		attach:   make(chan *Client),
		detach:   make(chan *Client),
		inbound:  make(chan inboundCommand),
		secret:   secret,
		store:    st,
		log:      logger.With().Str("component", "hub").Logger(),
		registry: make(map[string]*Client),
		sessions: make(map[*Client]struct{}),
		banned:   make(map[string]struct{}),
		admins:   make(map[string]struct{}),
	}
}

// LoadModeration primes the ban and admin sets from the store. Call once
// before Run; a nil store is a no-op.
func (h *Hub) LoadModeration(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	bans, err := h.store.LoadBans(ctx)
	if err != nil {
		return fmt.Errorf("load bans: %w", err)
	}
	admins, err := h.store.LoadAdmins(ctx)
	if err != nil {
		return fmt.Errorf("load admins: %w", err)
	}
	for _, name := range bans {
		h.banned[name] = struct{}{}
	}
	for _, name := range admins {
		h.admins[name] = struct{}{}
	}
	h.log.Info().Int("bans", len(bans)).Int("admins", len(admins)).Msg("moderation state loaded")
	return nil
}

// RegisterClient attaches a new connection to the hub. The connection is not
// in the user registry until it logs in.
func (h *Hub) RegisterClient(c *Client) {
	h.attach <- c
}

// UnregisterClient signals that the connection is gone. Idempotent; the hub
// cleans up the registry entry and broadcasts the leave notification once.
func (h *Hub) UnregisterClient(c *Client) {
	c.CloseCommands()
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.sessions {
				h.closeEvents(c)
			}
			return
		case c := <-h.attach:
			h.sessions[c] = struct{}{}
			go h.pump(ctx, c)
		case c := <-h.detach:
			h.handleDetach(c)
		case in := <-h.inbound:
			h.dispatch(in.client, in.cmd)
		}
	}
}

// pump forwards one client's commands into the hub loop and reports the
// disconnect when the command channel closes.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for cmd := range c.Commands {
		select {
		case h.inbound <- inboundCommand{client: c, cmd: cmd}:
		case <-ctx.Done():
			return
		}
	}
	select {
	case h.detach <- c:
	case <-ctx.Done():
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandLogin:
		h.handleLogin(c, cmd.Username)
	case CommandSendMessage:
		h.handleMessage(c, cmd)
	case CommandVerifyAdmin:
		h.handleVerifyAdmin(c, cmd.Secret)
	case CommandBan:
		h.handleBan(c, cmd.Target)
	}
}

func (h *Hub) handleLogin(c *Client, username string) {
	if c.Username != "" {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "already logged in")})
		return
	}
	if username == "" {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "username is required")})
		return
	}
	if _, banned := h.banned[username]; banned {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeBanned, "you are banned")})
		return
	}
	if _, taken := h.registry[username]; taken {
		// Reject the newcomer; the existing connection keeps the name.
		h.send(c, &Event{
			Kind:  EventLoginResult,
			Error: coreError(ErrCodeNameTaken, "username already in use"),
		})
		return
	}

	c.Username = username
	_, c.IsAdmin = h.admins[username]
	h.registry[username] = c
	h.order = append(h.order, c)

	h.send(c, &Event{Kind: EventLoginResult, Success: true, IsAdmin: c.IsAdmin})
	h.notifyAll(fmt.Sprintf("%s joined the chat", username))
	h.broadcastUserList()
	h.log.Info().Str("username", username).Bool("is_admin", c.IsAdmin).Msg("user logged in")
}

func (h *Hub) handleMessage(c *Client, cmd *Command) {
	if c.Username == "" {
		// Not logged in; ignore.
		return
	}
	if _, banned := h.banned[c.Username]; banned {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeBanned, "you are banned")})
		return
	}
	h.broadcast(&Event{
		Kind: EventChatMessage,
		Message: Message{
			From:       c.Username,
			FromAdmin:  c.IsAdmin,
			Text:       cmd.Text,
			SentAt:     cmd.SentAt,
			ReceivedAt: time.Now().UTC(),
		},
	})
}

func (h *Hub) handleVerifyAdmin(c *Client, secret string) {
	if c.Username == "" {
		return
	}
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		h.send(c, &Event{
			Kind:  EventAdminVerified,
			Error: coreError(ErrCodeInvalidAdminSecret, "invalid admin password"),
		})
		return
	}

	alreadyAdmin := c.IsAdmin
	h.promote(c.Username)
	h.send(c, &Event{Kind: EventAdminVerified, Success: true})
	if !alreadyAdmin {
		h.notifyAll(fmt.Sprintf("%s is now an admin", c.Username))
		h.broadcastUserList()
		h.log.Info().Str("username", c.Username).Msg("admin verified")
	}
}

// promote idempotently adds the username to the admin set and flips the live
// connection's flag if present.
func (h *Hub) promote(username string) {
	if _, ok := h.admins[username]; ok {
		if c, live := h.registry[username]; live {
			c.IsAdmin = true
		}
		return
	}
	h.admins[username] = struct{}{}
	if c, live := h.registry[username]; live {
		c.IsAdmin = true
	}
	if h.store != nil {
		if err := h.store.AddAdmin(context.Background(), username); err != nil {
			h.log.Error().Err(err).Str("username", username).Msg("persist admin grant")
		}
	}
}

func (h *Hub) handleBan(c *Client, target string) {
	if c.Username == "" {
		return
	}
	if !c.IsAdmin {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeNotAuthorized, "not authorized to ban")})
		return
	}
	if target == "" {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "username is required")})
		return
	}
	if _, isAdmin := h.admins[target]; isAdmin {
		h.send(c, &Event{Kind: EventError, Error: coreError(ErrCodeCannotBanAdmin, "cannot ban an admin")})
		return
	}

	h.banned[target] = struct{}{}
	if h.store != nil {
		if err := h.store.AddBan(context.Background(), target, c.Username); err != nil {
			h.log.Error().Err(err).Str("username", target).Msg("persist ban")
		}
	}

	if victim, live := h.registry[target]; live {
		h.send(victim, &Event{
			Kind: EventBanNotice,
			Text: fmt.Sprintf("you have been banned by %s", c.Username),
		})
		h.removeFromRegistry(victim)
		h.closeEvents(victim)
	}

	h.notifyAll(fmt.Sprintf("%s was banned", target))
	h.broadcastUserList()
	h.log.Info().Str("username", target).Str("banned_by", c.Username).Msg("user banned")
}

func (h *Hub) handleDetach(c *Client) {
	delete(h.sessions, c)
	h.closeEvents(c)

	// A connection removed earlier (forced ban-close) or never logged in
	// produces no leave notification.
	if c.Username == "" {
		return
	}
	if current, ok := h.registry[c.Username]; !ok || current != c {
		return
	}
	h.removeFromRegistry(c)
	h.notifyAll(fmt.Sprintf("%s left the chat", c.Username))
	h.broadcastUserList()
	h.log.Info().Str("username", c.Username).Msg("user disconnected")
}

func (h *Hub) removeFromRegistry(c *Client) {
	delete(h.registry, c.Username)
	for i, other := range h.order {
		if other == c {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// snapshotUsers returns the current registrations in insertion order.
func (h *Hub) snapshotUsers() []UserInfo {
	users := make([]UserInfo, 0, len(h.order))
	for _, c := range h.order {
		users = append(users, UserInfo{Username: c.Username, IsAdmin: c.IsAdmin})
	}
	return users
}

func (h *Hub) notifyAll(text string) {
	h.broadcast(&Event{Kind: EventNotification, Text: text, At: time.Now().UTC()})
}

func (h *Hub) broadcastUserList() {
	h.broadcast(&Event{Kind: EventUserList, Users: h.snapshotUsers()})
}

// broadcast delivers the event to every registered connection. The recipient
// list is the hub's own order slice; send never blocks, so a dead or slow
// connection cannot stall the remaining deliveries.
func (h *Hub) broadcast(ev *Event) {
	for _, c := range h.order {
		h.send(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	if c.eventsClosed {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("client_id", c.ID).Str("username", c.Username).Msg("event buffer full, dropping")
	}
}

func (h *Hub) closeEvents(c *Client) {
	if c.eventsClosed {
		return
	}
	c.eventsClosed = true
	close(c.Events)
}
