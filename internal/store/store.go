package store

import "context"

// ModerationStore persists the append-only moderation state (bans and admin
// grants) so it survives restarts. The hub stays the authority at runtime;
// the store is loaded once at startup and appended to afterwards.
type ModerationStore interface {
	// LoadBans returns every banned username.
	LoadBans(ctx context.Context) ([]string, error)

	// LoadAdmins returns every username holding admin privilege.
	LoadAdmins(ctx context.Context) ([]string, error)

	// AddBan records a ban. Recording the same username twice is a no-op.
	AddBan(ctx context.Context, username, bannedBy string) error

	// AddAdmin records an admin grant. Idempotent.
	AddAdmin(ctx context.Context, username string) error

	// Close releases the underlying resources.
	Close() error
}
