package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"arena-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// AccountRepository persists PlayerAccount rows.
type AccountRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAccountRepository(db *sql.DB, logger zerolog.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

// Get returns the account for playerID, or nil when it does not exist.
func (r *AccountRepository) Get(ctx context.Context, playerID string) (*domain.PlayerAccount, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT player_id, display_name, riot_name, riot_tag, puuid, last_sync_watermark, created_at, updated_at
		FROM players WHERE player_id = ?`, playerID)

	var a domain.PlayerAccount
	err := row.Scan(&a.PlayerID, &a.DisplayName, &a.RiotName, &a.RiotTag, &a.Puuid, &a.LastSyncWatermark, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player %s: %w", playerID, err)
	}
	return &a, nil
}

// GetAll returns every account in insertion order. The leaderboard relies
// on this order for its tie-break.
func (r *AccountRepository) GetAll(ctx context.Context) ([]domain.PlayerAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, display_name, riot_name, riot_tag, puuid, last_sync_watermark, created_at, updated_at
		FROM players ORDER BY created_at, player_id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var accounts []domain.PlayerAccount
	for rows.Next() {
		var a domain.PlayerAccount
		if err := rows.Scan(&a.PlayerID, &a.DisplayName, &a.RiotName, &a.RiotTag, &a.Puuid, &a.LastSyncWatermark, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Upsert creates or updates an account. The watermark never moves
// backwards, regardless of what the caller passes.
func (r *AccountRepository) Upsert(ctx context.Context, a *domain.PlayerAccount) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (player_id, display_name, riot_name, riot_tag, puuid, last_sync_watermark, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			display_name = excluded.display_name,
			riot_name = excluded.riot_name,
			riot_tag = excluded.riot_tag,
			puuid = excluded.puuid,
			last_sync_watermark = MAX(players.last_sync_watermark, excluded.last_sync_watermark),
			updated_at = excluded.updated_at`,
		a.PlayerID, a.DisplayName, a.RiotName, a.RiotTag, a.Puuid, a.LastSyncWatermark, now, now)
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", a.PlayerID, err)
	}
	return nil
}
