package discord_bot

import "context"

type Bot interface {
	// Start blocks until ctx is done, then tears the session down.
	Start(ctx context.Context)
}
