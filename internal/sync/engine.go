// Package sync reconciles a player's stored match records against the
// remote match history. The engine walks history pages newest-first and
// stops once it crosses the last-sync watermark, so a refresh after the
// initial backfill costs a number of requests proportional to the new
// matches, not to the whole history.
package sync

import (
	"context"
	"errors"
	"fmt"
	"math"

	"arena-tracker/internal/champions"
	"arena-tracker/internal/constants"
	"arena-tracker/internal/domain"
	"arena-tracker/internal/extract"
	"arena-tracker/internal/riot"

	"github.com/rs/zerolog"
)

// MatchSource is the remote side of a sync. *riot.Client implements it.
type MatchSource interface {
	ListMatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error)
	GetMatchDetail(ctx context.Context, matchID string) (*riot.MatchDetail, error)
}

// Result is the outcome of one sync walk. The engine mutates nothing;
// callers merge Records and NewWatermark into the store.
type Result struct {
	Records      []domain.MatchRecord
	NewWatermark int64

	// Pages is the number of id pages requested, Processed the number of
	// match details successfully fetched (tracked mode or not).
	Pages     int
	Processed int

	// Skipped lists match ids whose detail fetch failed. Ids skipped on a
	// transient failure hold the watermark back so they are revisited on
	// the next sync; ids gone from the remote (not found) do not.
	Skipped []string
}

type Engine struct {
	source  MatchSource
	catalog *champions.Catalog
	logger  zerolog.Logger
}

func NewEngine(source MatchSource, catalog *champions.Catalog, logger zerolog.Logger) *Engine {
	return &Engine{source: source, catalog: catalog, logger: logger}
}

// Sync walks account's remote match history from most recent backward until
// it crosses the account's watermark, extracts arena records, and returns
// them deduplicated against known (the player's stored match id set) and
// against the session itself.
//
// Sync may return a non-nil Result together with a non-nil error: the walk
// was cut short (deadline, auth failure, an unreachable id page) but the
// pages that did complete are valid and safe to merge. The watermark in a
// partial result never covers a partially processed page.
func (e *Engine) Sync(ctx context.Context, account domain.PlayerAccount, known map[string]bool) (*Result, error) {
	if !account.Linked() {
		return nil, fmt.Errorf("player %s has no linked riot account", account.PlayerID)
	}

	watermark := account.LastSyncWatermark
	if watermark == 0 {
		watermark = constants.ArenaReleaseEpochMs
		e.logger.Info().Str("player_id", account.PlayerID).Msg("no previous sync, backfilling from arena release")
	}

	w := &walk{
		engine:    e,
		account:   account,
		known:     known,
		watermark: watermark,
		cursor:    watermark + 1,
		highest:   watermark,
		capTs:     -1,
		prevTs:    math.MaxInt64,
		seen:      make(map[string]bool),
	}

	err := w.run(ctx)
	res := w.result()

	e.logger.Info().
		Str("player_id", account.PlayerID).
		Int("pages", res.Pages).
		Int("processed", res.Processed).
		Int("new_records", len(res.Records)).
		Int("skipped", len(res.Skipped)).
		Int64("watermark", res.NewWatermark).
		Msg("sync finished")

	return res, err
}

// walk carries the cursor state of one Sync invocation.
type walk struct {
	engine  *Engine
	account domain.PlayerAccount
	known   map[string]bool

	watermark int64
	cursor    int64
	offset    int

	// highest is the newest creation time covered by fully processed pages.
	highest int64

	// capTs bounds the watermark when a transient skip occurred: the
	// creation time of the newest successfully processed match older than
	// the failed one. -1 means unset. awaitingCap is armed by a skip and
	// satisfied by the next processed match.
	capTs       int64
	awaitingCap bool

	// prevTs validates the remote's newest-first ordering.
	prevTs int64

	seen    map[string]bool
	records []domain.MatchRecord

	pages     int
	processed int
	skipped   []string
}

var errOutOfOrder = errors.New("match history out of order")

func (w *walk) run(ctx context.Context) error {
	e := w.engine

	for w.cursor > w.watermark {
		ids, err := e.source.ListMatchIDs(ctx, w.account.Puuid, w.offset, constants.MatchPageSize)
		if err != nil {
			return fmt.Errorf("list match ids at offset %d: %w", w.offset, err)
		}
		w.pages++

		if len(ids) == 0 {
			// Remote history exhausted; not an error.
			break
		}

		pageOldest, pageNewest, err := w.processPage(ctx, ids)
		if err != nil {
			if errors.Is(err, errOutOfOrder) {
				e.logger.Warn().Str("player_id", w.account.PlayerID).Msg("stopping sync: match history not ordered newest-first")
				return nil
			}
			return err
		}

		if pageOldest > 0 {
			w.cursor = pageOldest
		}
		if pageNewest > w.highest {
			w.highest = pageNewest
		}
		w.offset += constants.MatchPageSize
	}

	return nil
}

// processPage fetches and extracts every id in one page, in order. It
// returns the oldest and newest creation times observed in the page.
func (w *walk) processPage(ctx context.Context, ids []string) (pageOldest, pageNewest int64, err error) {
	e := w.engine

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		detail, err := e.source.GetMatchDetail(ctx, id)
		if err != nil {
			switch {
			case errors.Is(err, riot.ErrNotFound):
				// Gone for good; revisiting it can never succeed, so it
				// does not hold the watermark back.
				e.logger.Warn().Str("match_id", id).Msg("match no longer exists, skipping")
				w.skipped = append(w.skipped, id)
			case errors.Is(err, riot.ErrUnavailable):
				e.logger.Warn().Str("match_id", id).Err(err).Msg("match detail unavailable, skipping")
				w.skipped = append(w.skipped, id)
				w.awaitingCap = true
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
				return 0, 0, err
			default:
				// Auth failures and anything unexpected end the walk.
				return 0, 0, fmt.Errorf("match %s: %w", id, err)
			}
			continue
		}

		ts := detail.Info.GameCreation
		if ts > w.prevTs {
			return 0, 0, errOutOfOrder
		}
		w.prevTs = ts
		w.processed++

		if w.awaitingCap {
			w.capTs = ts
			w.awaitingCap = false
		}

		if rec := extract.Extract(detail, w.account.Puuid, e.catalog); rec != nil {
			if !w.known[rec.MatchID] && !w.seen[rec.MatchID] {
				w.records = append(w.records, *rec)
			}
			w.seen[rec.MatchID] = true
		}

		// Non-arena games still occupy chronological slots: their creation
		// time advances the cursor so the stop condition cannot stall.
		pageOldest = ts
		if ts > pageNewest {
			pageNewest = ts
		}
	}

	return pageOldest, pageNewest, nil
}

func (w *walk) result() *Result {
	newWatermark := w.highest
	if w.awaitingCap {
		// A transient skip with nothing older processed: do not advance.
		newWatermark = w.watermark
	} else if w.capTs >= 0 && w.capTs < newWatermark {
		newWatermark = w.capTs
	}
	if newWatermark < w.watermark {
		newWatermark = w.watermark
	}

	return &Result{
		Records:      w.records,
		NewWatermark: newWatermark,
		Pages:        w.pages,
		Processed:    w.processed,
		Skipped:      w.skipped,
	}
}
