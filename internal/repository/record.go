package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arena-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// RecordRepository persists MatchRecord rows. Records are immutable once
// stored: Merge only adds, never rewrites.
type RecordRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRecordRepository(db *sql.DB, logger zerolog.Logger) *RecordRepository {
	return &RecordRepository{db: db, logger: logger}
}

// RecordsFor returns a player's records ordered oldest first.
func (r *RecordRepository) RecordsFor(ctx context.Context, playerID string) ([]domain.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT match_id, champion, placement, teammate_name, teammate_champion, match_created_at,
		       kills, deaths, assists, damage_dealt, damage_taken, healing, shielding,
		       crowd_control, gold_earned, ability_q_casts, ability_w_casts, ability_e_casts, ability_r_casts
		FROM match_records WHERE player_id = ? ORDER BY match_created_at, match_id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list records for %s: %w", playerID, err)
	}
	defer rows.Close()

	var records []domain.MatchRecord
	for rows.Next() {
		var rec domain.MatchRecord
		s := &rec.Stats
		if err := rows.Scan(&rec.MatchID, &rec.Champion, &rec.Placement, &rec.TeammateName, &rec.TeammateChampion, &rec.CreatedAt,
			&s.Kills, &s.Deaths, &s.Assists, &s.DamageDealt, &s.DamageTaken, &s.Healing, &s.Shielding,
			&s.CrowdControl, &s.GoldEarned, &s.AbilityQCasts, &s.AbilityWCasts, &s.AbilityECasts, &s.AbilityRCasts); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// KnownIDs returns the set of match ids already stored for a player.
func (r *RecordRepository) KnownIDs(ctx context.Context, playerID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT match_id FROM match_records WHERE player_id = ?`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list known ids for %s: %w", playerID, err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan match id: %w", err)
		}
		known[id] = true
	}
	return known, rows.Err()
}

// Merge adds records whose match id is not yet stored for the player and
// advances the sync watermark, in one transaction. Merging the same input
// twice leaves the same state as merging it once: duplicates are ignored
// and the watermark only ever moves forward. Returns the number of records
// actually added.
func (r *RecordRepository) Merge(ctx context.Context, playerID string, records []domain.MatchRecord, watermark int64) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	now := time.Now()
	for _, rec := range records {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO match_records (
				match_id, player_id, champion, placement, teammate_name, teammate_champion, match_created_at,
				kills, deaths, assists, damage_dealt, damage_taken, healing, shielding,
				crowd_control, gold_earned, ability_q_casts, ability_w_casts, ability_e_casts, ability_r_casts,
				created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.MatchID, playerID, rec.Champion, rec.Placement, rec.TeammateName, rec.TeammateChampion, rec.CreatedAt,
			rec.Stats.Kills, rec.Stats.Deaths, rec.Stats.Assists, rec.Stats.DamageDealt, rec.Stats.DamageTaken,
			rec.Stats.Healing, rec.Stats.Shielding, rec.Stats.CrowdControl, rec.Stats.GoldEarned,
			rec.Stats.AbilityQCasts, rec.Stats.AbilityWCasts, rec.Stats.AbilityECasts, rec.Stats.AbilityRCasts,
			now)
		if err != nil {
			return 0, fmt.Errorf("failed to merge record %s: %w", rec.MatchID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE players
		SET last_sync_watermark = MAX(last_sync_watermark, ?), updated_at = ?
		WHERE player_id = ?`, watermark, now, playerID); err != nil {
		return 0, fmt.Errorf("failed to advance watermark for %s: %w", playerID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	r.logger.Debug().
		Str("player_id", playerID).
		Int("offered", len(records)).
		Int("added", added).
		Int64("watermark", watermark).
		Msg("records merged")

	return added, nil
}

// DeleteByChampion removes a player's records for one champion. Used by
// the manual tracking path; synced records are normally never removed.
func (r *RecordRepository) DeleteByChampion(ctx context.Context, playerID, champion string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM match_records WHERE player_id = ? AND champion = ?`, playerID, champion)
	if err != nil {
		return 0, fmt.Errorf("delete records for %s/%s: %w", playerID, champion, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
