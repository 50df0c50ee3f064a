package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"arena-tracker/internal/champions"
	"arena-tracker/internal/constants"
	"arena-tracker/internal/domain"
	"arena-tracker/internal/riot"
	syncengine "arena-tracker/internal/sync"
	"arena-tracker/internal/views"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSyncInProgress means a sync for the same player is already running.
	ErrSyncInProgress = errors.New("sync already in progress for this player")

	// ErrNotLinked means the player has no resolved riot account.
	ErrNotLinked = errors.New("player has no linked riot account")

	// ErrUnknownPlayer means the player was never seen before.
	ErrUnknownPlayer = errors.New("unknown player")
)

// AccountStore is the persistence surface for player accounts.
type AccountStore interface {
	Get(ctx context.Context, playerID string) (*domain.PlayerAccount, error)
	GetAll(ctx context.Context) ([]domain.PlayerAccount, error)
	Upsert(ctx context.Context, a *domain.PlayerAccount) error
}

// RecordStore is the persistence surface for match records.
type RecordStore interface {
	RecordsFor(ctx context.Context, playerID string) ([]domain.MatchRecord, error)
	KnownIDs(ctx context.Context, playerID string) (map[string]bool, error)
	Merge(ctx context.Context, playerID string, records []domain.MatchRecord, watermark int64) (int, error)
	DeleteByChampion(ctx context.Context, playerID, champion string) (int, error)
}

// AccountResolver resolves a riot id to a puuid.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, name, tag string) (string, error)
}

// Syncer runs one incremental sync walk.
type Syncer interface {
	Sync(ctx context.Context, account domain.PlayerAccount, known map[string]bool) (*syncengine.Result, error)
}

// SyncSummary is what the presentation layer shows after a link or refresh.
type SyncSummary struct {
	PlayerID   string
	NewRecords int
	Processed  int
	Skipped    []string
	Watermark  int64

	// Partial is set when the walk was cut short (deadline, unreachable
	// page) but completed pages were still merged.
	Partial bool
}

// Tracker orchestrates linking, syncing and the read views. All sync paths
// for one player are serialized; concurrent triggers fail fast with
// ErrSyncInProgress.
type Tracker struct {
	resolver AccountResolver
	engine   Syncer
	accounts AccountStore
	records  RecordStore
	catalog  *champions.Catalog
	locks    *playerLocks
	logger   zerolog.Logger
}

func NewTracker(resolver AccountResolver, engine Syncer, accounts AccountStore, records RecordStore, catalog *champions.Catalog, logger zerolog.Logger) *Tracker {
	return &Tracker{
		resolver: resolver,
		engine:   engine,
		accounts: accounts,
		records:  records,
		catalog:  catalog,
		locks:    newPlayerLocks(),
		logger:   logger,
	}
}

// LinkAccount resolves a riot id for the player, stores the link and runs
// the initial backfill sync. Re-linking an already linked player re-resolves
// and syncs from the existing watermark.
func (t *Tracker) LinkAccount(ctx context.Context, playerID, displayName, riotName, riotTag string) (*SyncSummary, error) {
	account, err := t.ensureAccount(ctx, playerID, displayName)
	if err != nil {
		return nil, err
	}

	puuid, err := t.resolver.ResolveAccount(ctx, riotName, riotTag)
	if err != nil {
		if errors.Is(err, riot.ErrNotFound) {
			return nil, fmt.Errorf("riot id %s#%s not found: %w", riotName, riotTag, err)
		}
		return nil, fmt.Errorf("resolve %s#%s: %w", riotName, riotTag, err)
	}

	account.RiotName = riotName
	account.RiotTag = riotTag
	account.Puuid = puuid
	if err := t.accounts.Upsert(ctx, account); err != nil {
		return nil, err
	}

	t.logger.Info().
		Str("player_id", playerID).
		Str("riot_id", riotName+"#"+riotTag).
		Str("puuid", puuid).
		Msg("riot account linked")

	return t.runSync(ctx, account)
}

// Refresh re-syncs an already linked player from their watermark.
func (t *Tracker) Refresh(ctx context.Context, playerID string) (*SyncSummary, error) {
	account, err := t.accounts.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUnknownPlayer
	}
	if !account.Linked() {
		return nil, ErrNotLinked
	}
	return t.runSync(ctx, account)
}

func (t *Tracker) runSync(ctx context.Context, account *domain.PlayerAccount) (*SyncSummary, error) {
	if !t.locks.tryAcquire(account.PlayerID) {
		return nil, ErrSyncInProgress
	}
	defer t.locks.release(account.PlayerID)

	ctx, cancel := context.WithTimeout(ctx, constants.SyncDeadline)
	defer cancel()

	known, err := t.records.KnownIDs(ctx, account.PlayerID)
	if err != nil {
		return nil, err
	}

	result, syncErr := t.engine.Sync(ctx, *account, known)
	if result == nil {
		return nil, syncErr
	}

	// Partial results are still merged; the merge is idempotent and the
	// engine's watermark never covers unprocessed ground.
	added, err := t.records.Merge(ctx, account.PlayerID, result.Records, result.NewWatermark)
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{
		PlayerID:   account.PlayerID,
		NewRecords: added,
		Processed:  result.Processed,
		Skipped:    result.Skipped,
		Watermark:  result.NewWatermark,
	}

	if syncErr != nil {
		if errors.Is(syncErr, riot.ErrAuth) {
			// Merged what we had, but the operator needs to know.
			return summary, syncErr
		}
		t.logger.Warn().Err(syncErr).Str("player_id", account.PlayerID).Msg("sync ended early, merged partial result")
		summary.Partial = true
	}

	return summary, nil
}

// ManualAdd records a first win without a linked account, as a degenerate
// single-record merge. The watermark does not move.
func (t *Tracker) ManualAdd(ctx context.Context, playerID, displayName, champion string) (*domain.MatchRecord, error) {
	account, err := t.ensureAccount(ctx, playerID, displayName)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate record id: %w", err)
	}

	rec := domain.MatchRecord{
		MatchID:   "manual-" + id,
		Champion:  t.catalog.Canonical(champion),
		Placement: 1,
		CreatedAt: time.Now().UnixMilli(),
	}
	if _, err := t.records.Merge(ctx, account.PlayerID, []domain.MatchRecord{rec}, 0); err != nil {
		return nil, err
	}

	t.logger.Info().Str("player_id", playerID).Str("champion", rec.Champion).Msg("manual win recorded")
	return &rec, nil
}

// ManualRemove deletes a player's records for one champion and returns how
// many were removed.
func (t *Tracker) ManualRemove(ctx context.Context, playerID, champion string) (int, error) {
	account, err := t.accounts.Get(ctx, playerID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, ErrUnknownPlayer
	}

	removed, err := t.records.DeleteByChampion(ctx, playerID, t.catalog.Canonical(champion))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		t.logger.Info().Str("player_id", playerID).Str("champion", champion).Int("removed", removed).Msg("manual win removed")
	}
	return removed, nil
}

// Wins returns the player's first-win record per champion, oldest first.
func (t *Tracker) Wins(ctx context.Context, playerID string) ([]domain.MatchRecord, error) {
	records, err := t.playerRecords(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return views.FirstWinRecords(records), nil
}

// AvailablePool returns catalog champions the player has not yet won with.
func (t *Tracker) AvailablePool(ctx context.Context, playerID string) ([]string, error) {
	records, err := t.playerRecords(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return t.catalog.Available(views.UniqueWins(records)), nil
}

// Stats returns the descriptive summary for one player.
func (t *Tracker) Stats(ctx context.Context, playerID string) (*views.PlayerStats, error) {
	records, err := t.playerRecords(ctx, playerID)
	if err != nil {
		return nil, err
	}
	stats := views.Stats(records)
	return &stats, nil
}

// Leaderboard ranks all players by unique champion wins.
func (t *Tracker) Leaderboard(ctx context.Context) ([]views.LeaderboardEntry, error) {
	accounts, err := t.accounts.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	recordsByPlayer := make(map[string][]domain.MatchRecord, len(accounts))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, a := range accounts {
		a := a
		g.Go(func() error {
			records, err := t.records.RecordsFor(gCtx, a.PlayerID)
			if err != nil {
				return err
			}
			mu.Lock()
			recordsByPlayer[a.PlayerID] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return views.Leaderboard(accounts, recordsByPlayer), nil
}

func (t *Tracker) playerRecords(ctx context.Context, playerID string) ([]domain.MatchRecord, error) {
	account, err := t.accounts.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUnknownPlayer
	}
	return t.records.RecordsFor(ctx, playerID)
}

// ensureAccount loads or lazily creates the player's account, refreshing
// the display name either way.
func (t *Tracker) ensureAccount(ctx context.Context, playerID, displayName string) (*domain.PlayerAccount, error) {
	account, err := t.accounts.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &domain.PlayerAccount{PlayerID: playerID}
		t.logger.Debug().Str("player_id", playerID).Msg("creating player account")
	}
	if displayName != "" {
		account.DisplayName = displayName
	}
	if err := t.accounts.Upsert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
