package constants

import "time"

const (
	// ArenaReleaseEpochMs is 1 May 2024, the arena mode release. First-time
	// backfills walk match history back to this boundary.
	ArenaReleaseEpochMs int64 = 1714521600000

	// ArenaGameMode is the match-v5 gameMode tag for arena games.
	ArenaGameMode = "CHERRY"

	// MatchPageSize is the number of match ids requested per page.
	MatchPageSize = 10
)

const (
	// RateLimitCooldown is slept after a 429 before retrying. Rate limiting
	// is backpressure, not failure; the retry is unbounded.
	RateLimitCooldown = 10 * time.Second

	// TransientRetryBudget bounds retries on 5xx responses.
	TransientRetryBudget = 3

	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second

	// SyncDeadline bounds a whole sync walk. A first backfill can span
	// hundreds of requests, so this is generous.
	SyncDeadline = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
